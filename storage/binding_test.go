package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/topfreegames/pitaya/v3/pkg/cluster"
	"github.com/topfreegames/pitaya/v3/pkg/config"
	"github.com/topfreegames/pitaya/v3/pkg/constants"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

func TestBindingValue(t *testing.T) {
	server := cluster.NewServer("hkmj-1", "hkmj", true)
	b := NewETCDBinding(server, config.ETCDBindingConfig{
		DialTimeout: time.Second,
		Endpoints:   []string{"localhost:2379"},
		Prefix:      "pitaya/",
		LeaseTTL:    time.Hour,
	})
	if b.etcdPrefix != "pitaya/" || b.leaseTTL != time.Hour || len(b.etcdEndpoints) != 1 {
		t.Errorf("config not applied: %+v", b)
	}

	want := b.binding("ABCDE", 3)
	if want.ServerId != "hkmj-1" || want.ServerType != "hkmj" {
		t.Errorf("binding = %+v", want)
	}
	got, err := decodeBinding([]byte(`{"server_id":"hkmj-1","server_type":"hkmj","room":"ABCDE","seat":3}`))
	if err != nil {
		t.Fatal(err)
	}
	if *got != want {
		t.Errorf("decoded %+v, want %+v", got, want)
	}
	if _, err := decodeBinding([]byte("not json")); err == nil {
		t.Error("garbage decoded")
	}
	if key := getUserSeatKey("u1"); key != "hkmj/seat/u1" {
		t.Errorf("key = %s", key)
	}
}

// memKV 只实现Put/Get/Delete的内存KV
type memKV struct {
	clientv3.KV
	data map[string][]byte
}

func (m *memKV) Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	m.data[key] = []byte(val)
	return &clientv3.PutResponse{}, nil
}

func (m *memKV) Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	resp := &clientv3.GetResponse{}
	if v, ok := m.data[key]; ok {
		resp.Kvs = []*mvccpb.KeyValue{{Key: []byte(key), Value: v}}
	}
	return resp, nil
}

func (m *memKV) Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	delete(m.data, key)
	return &clientv3.DeleteResponse{}, nil
}

func TestBindingPutGetRemove(t *testing.T) {
	kv := &memKV{data: make(map[string][]byte)}
	b := NewETCDBinding(cluster.NewServer("hkmj-1", "hkmj", true), config.ETCDBindingConfig{})
	b.cli = &clientv3.Client{KV: kv}

	if _, err := b.Get("u1"); !errors.Is(err, constants.ErrBindingNotFound) {
		t.Fatalf("get before put err = %v", err)
	}
	if err := b.Put("u1", "ABCDE", 2); err != nil {
		t.Fatal(err)
	}
	if _, ok := kv.data["hkmj/seat/u1"]; !ok {
		t.Fatalf("keys = %v", kv.data)
	}
	got, err := b.Get("u1")
	if err != nil {
		t.Fatal(err)
	}
	if *got != (Binding{ServerId: "hkmj-1", ServerType: "hkmj", Room: "ABCDE", Seat: 2}) {
		t.Errorf("binding = %+v", got)
	}

	if err := b.Put("u1", "FGHJK", 0); err != nil {
		t.Fatal(err)
	}
	if got, _ := b.Get("u1"); got == nil || got.Room != "FGHJK" || got.Seat != 0 {
		t.Errorf("rebound = %+v", got)
	}

	if err := b.Remove("u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Get("u1"); !errors.Is(err, constants.ErrBindingNotFound) {
		t.Errorf("get after remove err = %v", err)
	}
}
