package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kevin-chtw/tw_hkmj/game"
	"github.com/topfreegames/pitaya/v3/pkg/logger"
)

// 响应码
const (
	CodeSuccess      = 0
	CodeInvalidParam = 10001
	CodeNotFound     = 10004
)

// Response 统一的响应格式
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Server 房间查询的管理接口
type Server struct {
	engine *gin.Engine
	server *http.Server
	addr   string
	tables *game.TableManager
}

func NewServer(addr string, tables *game.TableManager) *Server {
	s := &Server{
		engine: gin.New(),
		addr:   addr,
		tables: tables,
	}
	s.engine.Use(gin.Logger())
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	v1 := s.engine.Group("/api/v1")
	v1.GET("/rooms", s.listRooms)
	v1.GET("/rooms/:code", s.getRoom)
	v1.GET("/rooms/:code/snapshot", s.getSnapshot)
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: CodeSuccess, Message: "success", Data: data})
}

func fail(c *gin.Context, status, code int, message string) {
	c.JSON(status, Response{Code: code, Message: message})
}

func (s *Server) listRooms(c *gin.Context) {
	success(c, s.tables.List())
}

func (s *Server) table(c *gin.Context) *game.Table {
	code := c.Param("code")
	if code == "" {
		fail(c, http.StatusBadRequest, CodeInvalidParam, "room code required")
		return nil
	}
	table := s.tables.Get(code)
	if table == nil {
		fail(c, http.StatusNotFound, CodeNotFound, game.ErrRoomNotFound.Error())
	}
	return table
}

// getRoom 座位信息和公开牌局，未开局时snapshot为空
func (s *Server) getRoom(c *gin.Context) {
	table := s.table(c)
	if table == nil {
		return
	}
	success(c, gin.H{
		"table":    table.Info(),
		"snapshot": table.Snapshot(),
	})
}

// getSnapshot 只有公开信息，不含手牌
func (s *Server) getSnapshot(c *gin.Context) {
	table := s.table(c)
	if table == nil {
		return
	}
	snap := table.Snapshot()
	if snap == nil {
		fail(c, http.StatusNotFound, CodeNotFound, game.ErrGameNotStarted.Error())
		return
	}
	success(c, snap)
}

// Handler 测试用
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start 阻塞直到Shutdown
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}
	logger.Log.Infof("http api listening on %s", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
