package rates

import "time"

// Instrument идентифицирует торговую пару, за которой следит движок курсов.
type Instrument string

const (
	InstrumentBTCUSDT Instrument = "BTCUSDT"
	InstrumentBTCARS  Instrument = "BTCARS"
	InstrumentUSDTBRL Instrument = "USDTBRL"
	// InstrumentUSDTARS — прямая котировка USDT/ARS, используется только для спреда.
	InstrumentUSDTARS Instrument = "USDTARS"
)

// Tick представляет одно обновление цены от внешнего источника.
type Tick struct {
	Instrument Instrument
	Price      float64
	Time       time.Time
}

// DerivedRates содержит кросс-курсы, рассчитанные из сырых котировок
// на момент публикации.
type DerivedRates struct {
	BtcUsdt        float64   `json:"btc_usdt"`
	BtcArs         float64   `json:"btc_ars"`
	UsdtBrl        float64   `json:"usdt_brl"`
	UsdtArsDerived float64   `json:"usdt_ars_derived"`
	UsdtArsDirect  float64   `json:"usdt_ars_direct"`
	BrlArs         float64   `json:"brl_ars"`
	Spread         float64   `json:"spread"`
	Timestamp      time.Time `json:"timestamp"`
}

// Change содержит процентное изменение каждого курса относительно
// предыдущей публикации.
type Change struct {
	UsdtArs       float64 `json:"usdt_ars"`
	UsdtArsDirect float64 `json:"usdt_ars_direct"`
	UsdtBrl       float64 `json:"usdt_brl"`
	BrlArs        float64 `json:"brl_ars"`
}

// lastPrices хранит последние известные цены. nil означает, что по инструменту
// ещё не было ни одного тика: нулевая цена и отсутствие данных — разные состояния.
type lastPrices struct {
	btcUsdt       *float64
	btcArs        *float64
	usdtBrl       *float64
	usdtArsDirect *float64
}

// ready сообщает, достаточно ли данных для расчёта кросс-курсов.
func (p lastPrices) ready() bool {
	return positive(p.btcUsdt) && positive(p.btcArs) && positive(p.usdtBrl)
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}

// derive рассчитывает кросс-курсы из последних известных цен.
// Возвращает nil, если обязательных котировок ещё нет.
func derive(p lastPrices, now time.Time) *DerivedRates {
	if !p.ready() {
		return nil
	}

	usdtArsDerived := *p.btcArs / *p.btcUsdt
	brlArs := usdtArsDerived / *p.usdtBrl

	r := &DerivedRates{
		BtcUsdt:        *p.btcUsdt,
		BtcArs:         *p.btcArs,
		UsdtBrl:        *p.usdtBrl,
		UsdtArsDerived: usdtArsDerived,
		BrlArs:         brlArs,
		Timestamp:      now,
	}

	if positive(p.usdtArsDirect) {
		r.UsdtArsDirect = *p.usdtArsDirect
		r.Spread = (r.UsdtArsDirect - usdtArsDerived) / usdtArsDerived * 100
	}

	return r
}

// changeBetween рассчитывает процентные изменения между публикациями.
// При отсутствии предыдущего снимка или нулевом предыдущем значении
// изменение считается нулевым, чтобы первая публикация была стабильной.
func changeBetween(current, previous *DerivedRates) Change {
	if current == nil || previous == nil {
		return Change{}
	}

	return Change{
		UsdtArs:       percentDelta(current.UsdtArsDerived, previous.UsdtArsDerived),
		UsdtArsDirect: percentDelta(current.UsdtArsDirect, previous.UsdtArsDirect),
		UsdtBrl:       percentDelta(current.UsdtBrl, previous.UsdtBrl),
		BrlArs:        percentDelta(current.BrlArs, previous.BrlArs),
	}
}

func percentDelta(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
