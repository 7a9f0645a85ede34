package domain

// Product представляет собой OTT продукт из каталога.
// Каталог принадлежит основному MoA backend и для этого сервиса
// доступен только на чтение.
type Product struct {
	ID           int64  `json:"productId"`
	Name         string `json:"productName"`
	Price        int64  `json:"price"` // месячная цена в вонах
	MaxUserCount int    `json:"maxUserCount"`
	Image        string `json:"image,omitempty"`
}
