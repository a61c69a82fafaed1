// Package valkey implements store.Store on github.com/valkey-io/valkey-go.
//
// The key layout matches store/redis, so both stores can address the same
// data. Reads pipeline GET with PEXPIRE to slide the TTL.
package valkey

import (
	"context"
	"errors"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/unkn0wn-root/l2cache/internal/keys"
	"github.com/unkn0wn-root/l2cache/store"
)

var ErrNilClient = errors.New("valkey store: nil client")

const (
	defaultPrefix    = "l2:"
	defaultScanCount = 512
)

type Store struct {
	client      valkey.Client
	prefix      string
	scanCount   int64
	closeClient bool
}

var _ store.Store = (*Store)(nil)

type Config struct {
	Client      valkey.Client
	Prefix      string // "" => "l2:"
	ScanCount   int64  // SCAN COUNT hint for region flushes; 0 => 512
	CloseClient bool   // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	s := &Store{
		client:      cfg.Client,
		prefix:      cfg.Prefix,
		scanCount:   cfg.ScanCount,
		closeClient: cfg.CloseClient,
	}
	if s.prefix == "" {
		s.prefix = defaultPrefix
	}
	if s.scanCount <= 0 {
		s.scanCount = defaultScanCount
	}
	return s, nil
}

// Dial creates a client for addr ("host:port") and a store that owns it.
func Dial(ctx context.Context, addr, prefix string) (*Store, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	return New(Config{Client: client, Prefix: prefix, CloseClient: true})
}

func (s *Store) key(region, key string) string { return keys.Region(s.prefix, region, key) }

func (s *Store) Get(ctx context.Context, region, key string, ttl time.Duration) ([]byte, bool, error) {
	k := s.key(region, key)
	get := s.client.B().Get().Key(k).Build()

	var data []byte
	var err error
	if ttl > 0 {
		resps := s.client.DoMulti(ctx, get, s.client.B().Pexpire().Key(k).Milliseconds(ttl.Milliseconds()).Build())
		data, err = resps[0].AsBytes()
	} else {
		data, err = s.client.Do(ctx, get).AsBytes()
	}
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *Store) Set(ctx context.Context, region, key string, value []byte, ttl time.Duration) error {
	k := s.key(region, key)
	var cmd valkey.Completed
	if ttl > 0 {
		cmd = s.client.B().Set().Key(k).Value(valkey.BinaryString(value)).Px(ttl).Build()
	} else {
		cmd = s.client.B().Set().Key(k).Value(valkey.BinaryString(value)).Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *Store) Del(ctx context.Context, region, key string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.key(region, key)).Build()).Error()
}

func (s *Store) Contains(ctx context.Context, region, key string) (bool, error) {
	n, err := s.client.Do(ctx, s.client.B().Exists().Key(s.key(region, key)).Build()).AsInt64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteRegion scans every node and unlinks the region's keys one per command,
// so cluster slots never cross.
func (s *Store) DeleteRegion(ctx context.Context, region string) error {
	pattern := keys.RegionPattern(s.prefix, region)
	for _, node := range s.client.Nodes() {
		if err := s.unlinkMatching(ctx, node, pattern); err != nil {
			return err
		}
	}
	return nil
}

// unlinkMatching finishes the SCAN before unlinking so the cursor never
// runs over a shrinking keyspace.
func (s *Store) unlinkMatching(ctx context.Context, node valkey.Client, pattern string) error {
	var (
		cur     uint64
		matched []string
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		scan, err := node.Do(ctx, node.B().Scan().Cursor(cur).Match(pattern).Count(s.scanCount).Build()).AsScanEntry()
		if err != nil {
			return err
		}
		matched = append(matched, scan.Elements...)
		cur = scan.Cursor
		if cur == 0 {
			break
		}
	}

	for len(matched) > 0 {
		n := min(len(matched), int(s.scanCount))
		cmds := make(valkey.Commands, 0, n)
		for _, k := range matched[:n] {
			cmds = append(cmds, node.B().Unlink().Key(k).Build())
		}
		matched = matched[n:]
		for _, resp := range node.DoMulti(ctx, cmds...) {
			if err := resp.Error(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	if s.closeClient {
		s.client.Close()
	}
	return nil
}
