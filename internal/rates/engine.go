// Package rates реализует движок расчёта кросс-курсов BRL/ARS/USDT
// из потока котировок Binance.
package rates

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultPublishInterval — период публикации снимка курсов. Публикация
// отвязана от частоты тиков, чтобы ограничить поток обновлений для потребителей.
const DefaultPublishInterval = 500 * time.Millisecond

// Source описывает транспорт, поставляющий тики котировок.
// Переподключение с backoff живёт в транспорте, движок им только управляет.
type Source interface {
	Ticks() <-chan Tick
	Reconnect()
}

// Snapshot содержит опубликованное состояние движка для потребителей.
// Rates равен nil, пока обязательных котировок недостаточно для расчёта.
type Snapshot struct {
	Rates       *DerivedRates `json:"rates"`
	Changes     Change        `json:"changes"`
	Connected   bool          `json:"connected"`
	LastUpdated *time.Time    `json:"last_updated"`
}

// Engine хранит последние известные цены и на фиксированном интервале
// публикует рассчитанные кросс-курсы вместе с процентными изменениями.
type Engine struct {
	source   Source
	logger   *zap.Logger
	interval time.Duration

	mu          sync.Mutex
	prices      lastPrices
	current     *DerivedRates
	previous    *DerivedRates
	changes     Change
	connected   bool
	lastUpdated *time.Time
}

// NewEngine создаёт движок курсов поверх указанного источника тиков.
func NewEngine(source Source, interval time.Duration, logger *zap.Logger) *Engine {
	if interval <= 0 {
		interval = DefaultPublishInterval
	}
	return &Engine{
		source:   source,
		logger:   logger,
		interval: interval,
	}
}

// Run читает тики источника и публикует снимки до отмены контекста.
// Тики и таймер публикации обслуживаются одним циклом, поэтому
// состояние цен не гоняется между горутинами.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-e.source.Ticks():
			if !ok {
				return
			}
			e.applyTick(t)
		case <-ticker.C:
			e.publish(time.Now())
		}
	}
}

// applyTick обновляет последнюю известную цену одного инструмента.
// Некорректные тики отбрасываются и не меняют состояние.
func (e *Engine) applyTick(t Tick) {
	if t.Price <= 0 {
		e.logger.Debug("dropping non-positive tick",
			zap.String("instrument", string(t.Instrument)),
			zap.Float64("price", t.Price))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	price := t.Price
	switch t.Instrument {
	case InstrumentBTCUSDT:
		e.prices.btcUsdt = &price
	case InstrumentBTCARS:
		e.prices.btcArs = &price
	case InstrumentUSDTBRL:
		e.prices.usdtBrl = &price
	case InstrumentUSDTARS:
		e.prices.usdtArsDirect = &price
	default:
		e.logger.Debug("dropping tick for unknown instrument",
			zap.String("instrument", string(t.Instrument)))
	}
}

// publish рассчитывает кросс-курсы из последних цен и фиксирует их
// как текущий снимок. Если обязательных котировок нет, публикации не происходит.
func (e *Engine) publish(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	derived := derive(e.prices, now)
	if derived == nil {
		return
	}

	// Публикации монотонны по времени.
	if e.current != nil && !derived.Timestamp.After(e.current.Timestamp) {
		return
	}

	e.previous = e.current
	e.current = derived
	e.changes = changeBetween(e.current, e.previous)
	e.lastUpdated = &now
}

// Snapshot возвращает последний опубликованный снимок курсов.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		Changes:   e.changes,
		Connected: e.connected,
	}
	if e.current != nil {
		rates := *e.current
		s.Rates = &rates
	}
	if e.lastUpdated != nil {
		updated := *e.lastUpdated
		s.LastUpdated = &updated
	}
	return s
}

// SetConnected обновляет признак живости соединения с источником котировок.
func (e *Engine) SetConnected(connected bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connected = connected
}

// Reconnect запрашивает переподключение транспорта. Вызов идемпотентен:
// дедупликация одновременных попыток выполняется в самом транспорте.
func (e *Engine) Reconnect() {
	if e.source != nil {
		e.source.Reconnect()
	}
}
