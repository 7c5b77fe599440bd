package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Index represents a tracked market index (e.g. ^GSPC) and its feed metadata
type Index struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Symbol    string    `gorm:"uniqueIndex;not null" json:"symbol"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryPoint is one daily OHLCV bar of a symbol's price series.
// Close values feed the analytics layer directly, so they stay float64.
type HistoryPoint struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Symbol    string    `gorm:"index:idx_history_symbol_date,unique;not null" json:"symbol"`
	Date      time.Time `gorm:"index:idx_history_symbol_date,unique" json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	AdjClose  float64   `json:"adj_close"`
	Volume    int64     `json:"volume"`
	FetchedAt time.Time `gorm:"index" json:"fetched_at"`
}

// HistoryPointMinimal is the slim date+close projection used by analytics payloads
type HistoryPointMinimal struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Quote is the cached latest-quote snapshot of a symbol, one row per symbol
type Quote struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Symbol           string          `gorm:"uniqueIndex;not null" json:"symbol"`
	Price            decimal.Decimal `gorm:"type:decimal(15,4)" json:"price"`
	Change           decimal.Decimal `gorm:"type:decimal(15,4)" json:"change"`
	ChangePercent    decimal.Decimal `gorm:"type:decimal(10,4)" json:"change_percent"`
	DayLow           decimal.Decimal `gorm:"type:decimal(15,4)" json:"day_low"`
	DayHigh          decimal.Decimal `gorm:"type:decimal(15,4)" json:"day_high"`
	FiftyTwoWeekLow  decimal.Decimal `gorm:"type:decimal(15,4)" json:"fifty_two_week_low"`
	FiftyTwoWeekHigh decimal.Decimal `gorm:"type:decimal(15,4)" json:"fifty_two_week_high"`
	MarketCap        decimal.Decimal `gorm:"type:decimal(20,2)" json:"market_cap"`
	Currency         string          `json:"currency"`
	Exchange         string          `json:"exchange"`
	Market           string          `json:"market"`
	ShortName        string          `json:"short_name"`
	LongName         string          `json:"long_name"`
	FetchedAt        time.Time       `gorm:"index" json:"fetched_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// MarketMover is one top gainer or loser row of an index
type MarketMover struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	IndexSymbol   string          `gorm:"index;not null" json:"index_symbol"`
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Direction     string          `json:"direction"` // gainer, loser
	Price         decimal.Decimal `gorm:"type:decimal(15,4)" json:"price"`
	Change        decimal.Decimal `gorm:"type:decimal(15,4)" json:"change"`
	ChangePercent decimal.Decimal `gorm:"type:decimal(10,4)" json:"change_percent"`
	FetchedAt     time.Time       `gorm:"index" json:"fetched_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// News is one cached headline attached to an index
type News struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	IndexSymbol string    `gorm:"index;not null" json:"index_symbol"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url"`
	Provider    string    `json:"provider"`
	PublishedAt time.Time `json:"published_at"`
	FetchedAt   time.Time `gorm:"index" json:"fetched_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// MigrateMarketModels runs database migrations for market data models
func MigrateMarketModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Index{},
		&HistoryPoint{},
		&Quote{},
		&MarketMover{},
		&News{},
	)
}

// DefaultIndexes is the registry seeded at startup
var DefaultIndexes = []Index{
	{Symbol: "^GSPC", Name: "S&P 500", Currency: "USD", Region: "US"},
	{Symbol: "^IXIC", Name: "NASDAQ Composite", Currency: "USD", Region: "US"},
	{Symbol: "^STOXX50E", Name: "EURO STOXX 50", Currency: "EUR", Region: "EU"},
	{Symbol: "^SSMI", Name: "SMI", Currency: "CHF", Region: "CH"},
}

// SeedIndexes inserts the default index registry, skipping symbols already present
func SeedIndexes(db *gorm.DB) error {
	for _, idx := range DefaultIndexes {
		var count int64
		if err := db.Model(&Index{}).Where("symbol = ?", idx.Symbol).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&idx).Error; err != nil {
			return err
		}
	}
	return nil
}
