package harvest

import (
	"fmt"

	"dermquiz/pkg/checkpoint"
	"dermquiz/pkg/config"
	"dermquiz/pkg/isic"
	"dermquiz/pkg/quiz"
)

// HarvestSearch fills one label's bucket from the image search endpoint.
//
// With RequireHistopathology set, a two-pass policy applies: the first pass
// accepts only histopathology-confirmed cases; if that under-fills the
// bucket, a second pass restarts pagination from the first page and accepts
// clinically confirmed cases as well. Modality and dedup filters apply to
// both passes.
func (h *Harvester) HarvestSearch(cp *checkpoint.Checkpoint, bucket *quiz.Bucket, search config.SearchConfig) error {
	label := quiz.Label(search.Label)

	if !search.RequireHistopathology {
		return h.searchPass(cp, bucket, label, search, false)
	}

	if err := h.searchPass(cp, bucket, label, search, true); err != nil {
		return err
	}
	if bucket.Full() {
		return nil
	}

	h.logger.InfoWithFields("histopathology pass under-filled bucket, accepting clinical confirmations", map[string]interface{}{
		"label":  string(label),
		"have":   bucket.Len(),
		"target": bucket.Target(),
	})

	cp.SearchURLs[label] = ""
	return h.searchPass(cp, bucket, label, search, false)
}

// searchPass pages through search results until the bucket fills or
// pagination ends, resuming from the checkpointed cursor.
func (h *Harvester) searchPass(cp *checkpoint.Checkpoint, bucket *quiz.Bucket, label quiz.Label, search config.SearchConfig, histopathologyOnly bool) error {
	url := cp.SearchURLs[label]
	if url == "" {
		url = isic.SearchURL(h.cfg.API.BaseURL, search.Query, h.cfg.API.PageLimit)
	}

	for !bucket.Full() {
		h.limiter.Wait()

		page, err := h.client.FetchImagePage(url)
		if err != nil {
			return fmt.Errorf("search harvest for %s aborted: %w", label, err)
		}
		if len(page.Results) == 0 {
			break
		}

		accepted := 0
		for _, img := range page.Results {
			c, ok := CaseFromImage(img, label, SourceSearch)
			if !ok {
				continue
			}
			if histopathologyOnly && !IsHistopathologyConfirmed(img.Metadata) {
				continue
			}

			if bucket.Add(c) {
				accepted++
			}
			if bucket.Full() {
				break
			}
		}

		cp.SearchURLs[label] = page.Next
		cp.SetBucket(label, bucket.Cases())
		h.saveProgress(cp)

		h.logger.InfoWithFields("search page processed", map[string]interface{}{
			"label":    string(label),
			"accepted": accepted,
			"have":     bucket.Len(),
			"has_next": page.Next != "",
		})

		if page.Next == "" {
			break
		}
		url = page.Next
	}

	return nil
}
