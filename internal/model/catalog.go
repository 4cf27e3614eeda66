package model

// Client は作業時間の請求先となる顧客を表す。
type Client struct {
	ID        int64
	Name      string
	Warehouse string
}

// Task は倉庫ごとに定義された作業を表す。
type Task struct {
	ID           int64
	Name         string
	Warehouse    string
	IsPredefined bool
}
