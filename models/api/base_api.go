package apimodels

type Response struct {
	Status  string      `json:"status"`            // fail/success
	Message string      `json:"message,omitempty"` // error message
	Data    interface{} `json:"data,omitempty"`
}

type ScrollerResponse struct {
	Response
	RowCount int64 `json:"row_count,omitempty"` // total rows matching the filter
}

func NewError(message string) Response {
	return Response{
		Status:  "fail",
		Message: message,
	}
}

func NewResponse(data interface{}) Response {
	return Response{
		Status: "success",
		Data:   data,
	}
}

type Pagination struct {
	Limit int `json:"limit"` // rows per page
	Page  int `json:"page"`  // page number, starting from 1
}

func (r Pagination) GetPage() (page, limit int) {
	page = 1
	limit = 50
	if r.Page > 0 {
		page = r.Page
	}
	if r.Limit > 0 {
		limit = r.Limit
	}
	if limit > 500 {
		limit = 500
	}
	return page, limit
}

// Slice applies the pagination window to n rows
func (r Pagination) Slice(n int) (from, to int) {
	page, limit := r.GetPage()
	if n <= 0 || page-1 >= (n+limit-1)/limit {
		return n, n
	}
	from = (page - 1) * limit
	to = from + limit
	if to > n {
		to = n
	}
	return from, to
}

func NewScrollerResponse(data interface{}, rowCount int64) ScrollerResponse {
	return ScrollerResponse{
		Response: Response{
			Status: "success",
			Data:   data,
		},
		RowCount: rowCount,
	}
}
