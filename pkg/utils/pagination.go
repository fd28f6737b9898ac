package utils

// Page 归一化分页参数：page 从 1 开始，limit 默认 20、上限 100
func Page(page, limit int) (offset, size, p int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit, page
}
