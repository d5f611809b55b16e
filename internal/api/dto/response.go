package dto

// Response 统一响应体
type Response struct {
	Code    int         `json:"Code"`
	Message string      `json:"Message"`
	Data    interface{} `json:"Data"`
}

// PageQuery 通用分页参数
type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}
