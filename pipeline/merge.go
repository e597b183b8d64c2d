package pipeline

import "go-scrape-clubs/models"

// Merge reconciles an original input set, a prior checkpoint, and a
// batch of freshly scraped results into one output: exactly one record
// per original detail URL, in the original's order. Per URL the most
// authoritative source wins: checkpoint over fresh results over the
// untouched original. Merging the same inputs twice yields the same
// output, which is what makes a second pass safe to re-run.
func Merge(original []*models.Record, checkpoint, fresh map[string]*models.Record) []*models.Record {
	out := make([]*models.Record, 0, len(original))
	for _, rec := range original {
		if cp, ok := checkpoint[rec.DetailURL]; ok {
			out = append(out, cp)
			continue
		}
		if fr, ok := fresh[rec.DetailURL]; ok {
			out = append(out, fr)
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ByURL indexes records by detail URL, later entries winning.
func ByURL(records []*models.Record) map[string]*models.Record {
	byURL := make(map[string]*models.Record, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		byURL[rec.DetailURL] = rec
	}
	return byURL
}

// Pending returns the subset of original not yet represented in the
// checkpoint, in original order. That subset is the only work a resumed
// run needs to re-submit.
func Pending(original []*models.Record, checkpoint map[string]*models.Record) []*models.Record {
	var pending []*models.Record
	for _, rec := range original {
		if _, ok := checkpoint[rec.DetailURL]; ok {
			continue
		}
		pending = append(pending, rec)
	}
	return pending
}
