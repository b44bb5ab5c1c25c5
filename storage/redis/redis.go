// Package redis registers the "redis" storage backend. A path is a key: a
// list yields one line per element, a string is split on newlines.
package redis

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/minispark/logger"
	"github.com/kbukum/minispark/storage"
)

func init() {
	storage.RegisterFactory(storage.SchemeRedis, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		s, err := NewStorage(context.Background(), cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("redis backend ready", logger.Fields("addr", cfg.Redis.Addr, "db", cfg.Redis.DB))
		return s, nil
	})
}

// Storage reads keys from a Redis server.
type Storage struct {
	rdb   *goredis.Client
	batch int64
}

// NewStorage connects to cfg.Addr and pings it.
func NewStorage(ctx context.Context, cfg storage.RedisConfig) (*Storage, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 512
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("storage: redis ping %s: %w", cfg.Addr, err)
	}
	return &Storage{rdb: rdb, batch: int64(cfg.BatchSize)}, nil
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.rdb.Close()
}

// Open streams the key at path.
func (s *Storage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	kind, err := s.rdb.Type(ctx, path).Result()
	if err != nil {
		return nil, fmt.Errorf("storage: redis type %s: %w", path, err)
	}
	switch kind {
	case "none":
		return nil, fmt.Errorf("storage: redis key %s: %w", path, fs.ErrNotExist)
	case "string":
		v, err := s.rdb.Get(ctx, path).Bytes()
		if err != nil {
			if stderrors.Is(err, goredis.Nil) {
				return nil, fmt.Errorf("storage: redis key %s: %w", path, fs.ErrNotExist)
			}
			return nil, fmt.Errorf("storage: redis get %s: %w", path, err)
		}
		return io.NopCloser(bytes.NewReader(v)), nil
	case "list":
		return &listReader{ctx: ctx, rdb: s.rdb, key: path, batch: s.batch}, nil
	default:
		return nil, fmt.Errorf("storage: redis key %s holds a %s: %w", path, kind, fs.ErrInvalid)
	}
}

// Exists reports whether the key exists.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	n, err := s.rdb.Exists(ctx, path).Result()
	if err != nil {
		return false, fmt.Errorf("storage: redis exists %s: %w", path, err)
	}
	return n > 0, nil
}

// List scans for keys starting with prefix. Size is the element count for
// lists and the byte length for strings.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	var out []storage.FileInfo
	iter := s.rdb.Scan(ctx, 0, prefix+"*", s.batch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		size, err := s.size(ctx, key)
		if err != nil {
			return nil, err
		}
		out = append(out, storage.FileInfo{Path: key, Size: size})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("storage: redis scan %s: %w", prefix, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *Storage) size(ctx context.Context, key string) (int64, error) {
	kind, err := s.rdb.Type(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("storage: redis type %s: %w", key, err)
	}
	switch kind {
	case "list":
		return s.rdb.LLen(ctx, key).Result()
	case "string":
		return s.rdb.StrLen(ctx, key).Result()
	default:
		return 0, nil
	}
}

// listReader pages through a list with LRANGE and renders each element as
// one line.
type listReader struct {
	ctx   context.Context
	rdb   *goredis.Client
	key   string
	batch int64

	next int64
	buf  bytes.Buffer
	done bool
}

func (r *listReader) Read(p []byte) (int, error) {
	for r.buf.Len() == 0 {
		if r.done {
			return 0, io.EOF
		}
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	return r.buf.Read(p)
}

func (r *listReader) fill() error {
	items, err := r.rdb.LRange(r.ctx, r.key, r.next, r.next+r.batch-1).Result()
	if err != nil {
		return fmt.Errorf("storage: redis lrange %s: %w", r.key, err)
	}
	r.next += int64(len(items))
	if int64(len(items)) < r.batch {
		r.done = true
	}
	for _, item := range items {
		r.buf.WriteString(item)
		r.buf.WriteByte('\n')
	}
	return nil
}

func (r *listReader) Close() error {
	r.done = true
	r.buf.Reset()
	return nil
}
