package model

type MemoryUsage struct {
	Total      string  `json:"total"`
	Used       string  `json:"used"`
	Free       string  `json:"free"`
	Shared     string  `json:"shared"`
	BuffCache  string  `json:"buff_cache"`
	Available  string  `json:"available"`
	Percentage float64 `json:"percentage"`
}
