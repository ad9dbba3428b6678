package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"agri-advisor-backend/internal/logger"
	"agri-advisor-backend/internal/models"
	"agri-advisor-backend/internal/simulation"
)

// Publisher is the slice of the Redis client used to fan out events.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// MarketTicker broadcasts a fresh price snapshot to every websocket client
// on a fixed interval.
type MarketTicker struct {
	market   simulation.MarketSource
	pub      Publisher
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewMarketTicker(market simulation.MarketSource, pub Publisher, interval time.Duration) *MarketTicker {
	return &MarketTicker{
		market:   market,
		pub:      pub,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (t *MarketTicker) Start() {
	go t.loop()
	logger.Log.Infof("Market ticker started (every %s)", t.interval)
}

// Stop ends the loop and waits for it to exit.
func (t *MarketTicker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
	<-t.done
}

func (t *MarketTicker) loop() {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopChan:
			return
		case <-ticker.C:
			t.Tick(context.Background())
		}
	}
}

// Tick publishes one snapshot and reports how many subscribers received it.
func (t *MarketTicker) Tick(ctx context.Context) (int64, error) {
	data, err := t.market.Prices(ctx)
	if err != nil {
		logger.Log.Errorf("market ticker: failed to load prices: %v", err)
		return 0, err
	}

	msg, err := json.Marshal(models.WSMessage{Type: models.WSMarketTick, Payload: data})
	if err != nil {
		return 0, err
	}

	receivers, err := t.pub.Publish(ctx, models.MarketTicksChannel, string(msg)).Result()
	if err != nil {
		logger.Log.Errorf("market ticker: publish failed: %v", err)
		return 0, err
	}
	logger.Log.Debugf("market tick delivered to %d subscribers", receivers)
	return receivers, nil
}
