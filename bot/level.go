package bot

import "strings"

// Level AI难度
type Level int

const (
	LevelEasy Level = iota
	LevelMedium
	LevelHard
)

var levelNames = [...]string{"easy", "medium", "hard"}

func (l Level) String() string {
	if l < LevelEasy || l > LevelHard {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLevel 不认识的名称按medium处理
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "easy":
		return LevelEasy
	case "hard":
		return LevelHard
	}
	return LevelMedium
}
