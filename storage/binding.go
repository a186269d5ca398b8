package storage

// Copyright (c) TFG Co. All Rights Reserved.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/topfreegames/pitaya/v3/pkg/cluster"
	"github.com/topfreegames/pitaya/v3/pkg/config"
	"github.com/topfreegames/pitaya/v3/pkg/constants"
	"github.com/topfreegames/pitaya/v3/pkg/logger"
	"github.com/topfreegames/pitaya/v3/pkg/modules"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/namespace"
)

// Binding which room and seat a user sits at, and the server hosting it
type Binding struct {
	ServerId   string `json:"server_id"`
	ServerType string `json:"server_type"`
	Room       string `json:"room"`
	Seat       int    `json:"seat"`
}

// ETCDBinding module that uses etcd to keep in which room each user is seated
type ETCDBinding struct {
	modules.Base
	cli             *clientv3.Client
	etcdEndpoints   []string
	etcdPrefix      string
	etcdDialTimeout time.Duration
	leaseTTL        time.Duration
	leaseID         clientv3.LeaseID
	thisServer      *cluster.Server
	stopChan        chan struct{}
}

// NewETCDBinding returns a new instance of ETCDBinding
func NewETCDBinding(server *cluster.Server, conf config.ETCDBindingConfig) *ETCDBinding {
	b := &ETCDBinding{
		thisServer: server,
		stopChan:   make(chan struct{}),
	}
	b.etcdDialTimeout = conf.DialTimeout
	b.etcdEndpoints = conf.Endpoints
	b.etcdPrefix = conf.Prefix
	b.leaseTTL = conf.LeaseTTL
	return b
}

func getUserSeatKey(uid string) string {
	return fmt.Sprintf("hkmj/seat/%s", uid)
}

func (b *ETCDBinding) binding(room string, seat int) Binding {
	return Binding{
		ServerId:   b.thisServer.ID,
		ServerType: b.thisServer.Type,
		Room:       room,
		Seat:       seat,
	}
}

// Put binds the user to a room seat on this server, expiring with the server lease
func (b *ETCDBinding) Put(uid, room string, seat int) error {
	value, err := json.Marshal(b.binding(room, seat))
	if err != nil {
		return err
	}
	_, err = b.cli.Put(context.Background(), getUserSeatKey(uid), string(value), clientv3.WithLease(b.leaseID))
	return err
}

func (b *ETCDBinding) Remove(uid string) error {
	_, err := b.cli.Delete(context.Background(), getUserSeatKey(uid))
	return err
}

// Get gets the room seat a user is bound to
func (b *ETCDBinding) Get(uid string) (*Binding, error) {
	etcdRes, err := b.cli.Get(context.Background(), getUserSeatKey(uid))
	if err != nil {
		return nil, err
	}
	if len(etcdRes.Kvs) == 0 {
		return nil, constants.ErrBindingNotFound
	}
	return decodeBinding(etcdRes.Kvs[0].Value)
}

func decodeBinding(data []byte) (*Binding, error) {
	binding := &Binding{}
	if err := json.Unmarshal(data, binding); err != nil {
		return nil, fmt.Errorf("decode seat binding: %w", err)
	}
	return binding, nil
}

func (b *ETCDBinding) watchLeaseChan(c <-chan *clientv3.LeaseKeepAliveResponse) {
	for {
		select {
		case <-b.stopChan:
			return
		case kaRes := <-c:
			if kaRes == nil {
				logger.Log.Warn("[seat binding] sd: error renewing etcd lease, rebootstrapping")
				for {
					err := b.bootstrapLease()
					if err != nil {
						logger.Log.Warn("[seat binding] sd: error rebootstrapping lease, will retry in 5 seconds")
						time.Sleep(5 * time.Second)
						continue
					} else {
						return
					}
				}
			}
		}
	}
}

func (b *ETCDBinding) bootstrapLease() error {
	l, err := b.cli.Grant(context.TODO(), int64(b.leaseTTL.Seconds()))
	if err != nil {
		return err
	}
	b.leaseID = l.ID
	logger.Log.Debugf("[seat binding] sd: got leaseID: %x", l.ID)
	// the channel is closed when the lease is lost
	c, err := b.cli.KeepAlive(context.TODO(), b.leaseID)
	if err != nil {
		return err
	}
	<-c
	go b.watchLeaseChan(c)
	return nil
}

// Init starts the seat binding module
func (b *ETCDBinding) Init() error {
	if b.cli == nil {
		cli, err := clientv3.New(clientv3.Config{
			Endpoints:   b.etcdEndpoints,
			DialTimeout: b.etcdDialTimeout,
		})
		if err != nil {
			return err
		}
		b.cli = cli
	}
	b.cli.KV = namespace.NewKV(b.cli.KV, b.etcdPrefix)
	return b.bootstrapLease()
}

// Shutdown executes on shutdown and will clean etcd
func (b *ETCDBinding) Shutdown() error {
	close(b.stopChan)
	return b.cli.Close()
}
