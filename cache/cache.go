package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/shogitools/usibridge/usi"
)

// The cache sits in front of the engine so that repeated questions about the
// same position do not queue behind the serializer again. Only successful
// results are kept.

type entry struct {
	req usi.Request
	res *usi.Result
}

// Cache is a usi.Analyzer that remembers results of another Analyzer.
type Cache struct {
	next usi.Analyzer
	lru  *expirable.LRU[uint64, entry]
}

// New returns a cache of at most size results, each valid for ttl.
func New(next usi.Analyzer, size int, ttl time.Duration) *Cache {
	return &Cache{
		next: next,
		lru:  expirable.NewLRU[uint64, entry](size, nil, ttl),
	}
}

func key(req usi.Request) uint64 {
	var sb strings.Builder
	sb.WriteString(strings.Join(strings.Fields(req.SFEN), " "))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(req.Depth))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(req.MultiPV))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(req.Threads))
	sb.WriteByte('|')
	sb.WriteString(req.ForceMove)
	return xxhash.Sum64String(sb.String())
}

func (c *Cache) Analyze(ctx context.Context, req usi.Request) (*usi.Result, error) {
	k := key(req)
	if e, ok := c.lru.Get(k); ok && e.req == req {
		log.Debug().Str("sfen", req.SFEN).Int("depth", req.Depth).Msg("cache-hit")
		return e.res.Clone(), nil
	}
	res, err := c.next.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	c.lru.Add(k, entry{req: req, res: res.Clone()})
	return res, nil
}

// Len is the number of results currently held.
func (c *Cache) Len() int {
	return c.lru.Len()
}

func (c *Cache) Purge() {
	c.lru.Purge()
}
