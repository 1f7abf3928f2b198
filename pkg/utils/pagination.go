package utils

// CalculateTotalPages is ceil(total/perPage) with a floor of one page, so an
// empty result still reports a single (empty) page.
func CalculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// PageInRange reports whether page falls within the pages that hold rows.
// It never multiplies, so huge page numbers cannot overflow.
func PageInRange(page, perPage int, total int64) bool {
	if page < 1 || perPage <= 0 || total <= 0 {
		return false
	}
	return int64(page-1) < int64(CalculateTotalPages(total, perPage))
}

func CalculateOffset(page, perPage int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * perPage
}
