package bot

import (
	"fmt"
	"strconv"

	"github.com/dgraph-io/ristretto"
	"github.com/kevin-chtw/tw_hkmj/mahjong"
)

// WaitCache 听牌结果的本地缓存，同一手牌在一局里会被反复查询
type WaitCache struct {
	cache *ristretto.Cache
}

func NewWaitCache(maxCost int64) (*WaitCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxCost * 10,
		MaxCost:            maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create wait cache: %w", err)
	}
	return &WaitCache{cache: cache}, nil
}

func waitKey(hand []mahjong.Tile, meldCount int) string {
	return mahjong.HandKey(hand) + "/" + strconv.Itoa(meldCount)
}

// Waits 等价于mahjong.WaitingTiles，命中缓存时不再计算
func (c *WaitCache) Waits(hand []mahjong.Tile, meldCount int) []mahjong.TileKey {
	if c == nil {
		return mahjong.WaitingTiles(hand, meldCount)
	}
	key := waitKey(hand, meldCount)
	if v, ok := c.cache.Get(key); ok {
		if waits, ok := v.([]mahjong.TileKey); ok {
			return waits
		}
	}
	waits := mahjong.WaitingTiles(hand, meldCount)
	c.cache.Set(key, waits, 1)
	return waits
}

func (c *WaitCache) Close() {
	if c != nil {
		c.cache.Close()
	}
}
