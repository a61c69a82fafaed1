// Package redis implements store.Store on github.com/redis/go-redis/v9.
//
// Every entry is a plain Redis string under
//
//	<prefix><len(region)>:<region>:<key>
//
// Reads use GETEX so a hit slides the entry TTL (Redis >= 6.2). A region flush
// SCANs the region prefix and UNLINKs in pipelined batches; on a cluster client
// every master is scanned.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/l2cache/internal/keys"
	"github.com/unkn0wn-root/l2cache/store"
)

var ErrNilClient = errors.New("redis store: nil client")

const (
	defaultPrefix    = "l2:"
	defaultScanCount = 512
)

type Store struct {
	rdb         goredis.UniversalClient
	prefix      string
	scanCount   int64
	closeClient bool
}

var _ store.Store = (*Store)(nil)

type Config struct {
	Client      goredis.UniversalClient
	Prefix      string // "" => "l2:"
	ScanCount   int64  // SCAN COUNT hint for region flushes; 0 => 512
	CloseClient bool   // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	s := &Store{
		rdb:         cfg.Client,
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

func (s *Store) key(region, key string) string { return keys.Region(s.prefix, region, key) }

func (s *Store) Get(ctx context.Context, region, key string, ttl time.Duration) ([]byte, bool, error) {
	k := s.key(region, key)
	var cmd *goredis.StringCmd
	if ttl > 0 {
		cmd = s.rdb.GetEx(ctx, k, ttl)
	} else {
		cmd = s.rdb.Get(ctx, k)
	}
	b, err := cmd.Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (s *Store) Set(ctx context.Context, region, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0 // non-positive TTL => no expiry
	}
	return s.rdb.Set(ctx, s.key(region, key), value, ttl).Err()
}

func (s *Store) Del(ctx context.Context, region, key string) error {
	return s.rdb.Del(ctx, s.key(region, key)).Err()
}

func (s *Store) Contains(ctx context.Context, region, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(region, key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) DeleteRegion(ctx context.Context, region string) error {
	pattern := keys.RegionPattern(s.prefix, region)
	if cc, ok := s.rdb.(*goredis.ClusterClient); ok {
		return cc.ForEachMaster(ctx, func(ctx context.Context, node *goredis.Client) error {
			return s.unlinkMatching(ctx, node, pattern)
		})
	}
	return s.unlinkMatching(ctx, s.rdb, pattern)
}

// unlinkMatching scans one node to the end, then unlinks every matching key
// in pipelined batches. Deleting while the cursor advances can make SCAN skip
// keys. Keys are unlinked one per command so cluster slots never cross.
func (s *Store) unlinkMatching(ctx context.Context, c goredis.Cmdable, pattern string) error {
	var (
		cursor  uint64
		matched []string
	)
	for {
		batch, next, err := c.Scan(ctx, cursor, pattern, s.scanCount).Result()
		if err != nil {
			return err
		}
		matched = append(matched, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	for len(matched) > 0 {
		n := min(len(matched), int(s.scanCount))
		batch := matched[:n]
		matched = matched[n:]
		_, err := c.Pipelined(ctx, func(p goredis.Pipeliner) error {
			for _, k := range batch {
				p.Unlink(ctx, k)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Store) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
