package utils

// Page normalises 1-based paging input and returns the row offset.
func Page(page, size, defaultSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultSize
	}
	return page, size, (page - 1) * size
}

func TotalPages(count, size int) int {
	if size < 1 || count <= 0 {
		return 0
	}
	return (count + size - 1) / size
}
