// Данный файл должен быть сгенерирован из openapi спецификации и называться types.gen.go
package rest

import "time"

type Deal struct {
	ID                string     `json:"id"`
	Source            string     `json:"source"`
	Category          string     `json:"category,omitempty"`
	SubCategory       string     `json:"subCategory,omitempty"`
	Title             string     `json:"title"`
	Link              string     `json:"link"`
	ImageURL          string     `json:"imageUrl,omitempty"`
	MallName          string     `json:"mallName,omitempty"`
	CurrentPrice      int64      `json:"currentPrice"`
	PreviousPrice     *int64     `json:"previousPrice,omitempty"`
	DropRate          int        `json:"dropRate"`
	SaleEndDate       *time.Time `json:"saleEndDate,omitempty"`
	FeedOrder         int        `json:"feedOrder"`
	CategoryFeedOrder int        `json:"categoryFeedOrder"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// FeedPage Страница ленты
type FeedPage struct {
	Items  []Deal `json:"items"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// IngestDeal Сделка от скрейпера
type IngestDeal struct {
	ID            string     `json:"id" validate:"required"`
	Category      string     `json:"category"`
	SubCategory   string     `json:"subCategory"`
	Title         string     `json:"title" validate:"required"`
	Link          string     `json:"link" validate:"required,url"`
	ImageURL      string     `json:"imageUrl" validate:"omitempty,url"`
	MallName      string     `json:"mallName"`
	CurrentPrice  int64      `json:"currentPrice" validate:"gte=0"`
	PreviousPrice *int64     `json:"previousPrice" validate:"omitempty,gte=0"`
	SaleEndDate   *time.Time `json:"saleEndDate"`
}

type IngestRequest struct {
	Source string       `json:"source" validate:"required"`
	Deals  []IngestDeal `json:"deals" validate:"required,min=1,dive"`
}

type IngestResponse struct {
	Received   int `json:"received"`
	Duplicates int `json:"duplicates"`
	Expired    int `json:"expired"`
	Stored     int `json:"stored"`
	Hot        int `json:"hot"`
}

// Allocation Распределение слотов ленты по источникам
type Allocation struct {
	Size    int            `json:"size"`
	Sources map[string]int `json:"sources"`
}

type RefreshAccepted struct {
	TaskID string `json:"taskId"`
}

// RefreshStatus Последний успешный пересчёт в этом процессе
type RefreshStatus struct {
	RunID      string         `json:"runId"`
	StartedAt  time.Time      `json:"startedAt"`
	DurationMs int64          `json:"durationMs"`
	Total      int            `json:"total"`
	Categories int            `json:"categories"`
	Allocation map[string]int `json:"allocation"`
}

// Error Модель ошибок
type Error struct {
	// Code Код ошибки
	Code ErrorCode `json:"code"`

	// Message Сообщение об ошибке (для отображения в UI в будущем)
	Message string `json:"message"`
}

// ErrorCode Код ошибки
type ErrorCode string
