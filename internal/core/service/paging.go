package service

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// pageBounds clamps a requested page and limit to usable values.
func pageBounds(page, limit int) (int, int) {
	page = max(page, 1)
	if limit <= 0 {
		limit = defaultPageLimit
	}
	return page, min(limit, maxPageLimit)
}

func totalPages(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}
