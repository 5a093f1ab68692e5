package harvest

import (
	"fmt"

	"dermquiz/pkg/checkpoint"
	"dermquiz/pkg/isic"
	"dermquiz/pkg/quiz"
)

// HarvestStream walks the lesion-listing endpoint, derives a label for
// every lesion and appends the representative image of matching lesions to
// the corresponding bucket. It resumes from the checkpointed cursor and
// stops when every stream bucket is full, pagination ends, or the absolute
// scan cap is reached.
func (h *Harvester) HarvestStream(cp *checkpoint.Checkpoint, buckets map[quiz.Label]*quiz.Bucket) error {
	streamLabels := make(map[quiz.Label]bool, len(h.cfg.Harvest.StreamLabels))
	for _, name := range h.cfg.Harvest.StreamLabels {
		streamLabels[quiz.Label(name)] = true
	}

	url := cp.LesionsURL
	if url == "" {
		url = isic.LesionsURL(h.cfg.API.BaseURL, h.cfg.API.PageLimit)
	}

	for url != "" && cp.ScannedLesions < h.cfg.Harvest.ScanCap && !streamTargetsMet(buckets, streamLabels) {
		h.limiter.Wait()

		page, err := h.client.FetchLesionPage(url)
		if err != nil {
			return fmt.Errorf("lesion stream aborted: %w", err)
		}
		if len(page.Results) == 0 {
			break
		}

		accepted := 0
		for _, lesion := range page.Results {
			cp.ScannedLesions++

			label, ok := DeriveLabel(lesion)
			if !ok || !streamLabels[label] {
				continue
			}

			bucket := buckets[label]
			if bucket == nil || bucket.Full() {
				continue
			}

			img, ok := RepresentativeImage(lesion)
			if !ok {
				continue
			}

			c, ok := CaseFromImage(img, label, SourceLesions)
			if !ok {
				continue
			}
			if c.LesionID == "" {
				c.LesionID = lesion.ID
			}

			if bucket.Add(c) {
				accepted++
			}
		}

		// Persist cursor and buckets before moving on, so a crash costs at
		// most this one page.
		url = page.Next
		cp.LesionsURL = url
		for label, bucket := range buckets {
			cp.SetBucket(label, bucket.Cases())
		}
		h.saveProgress(cp)

		h.logger.InfoWithFields("lesion page processed", map[string]interface{}{
			"scanned":  cp.ScannedLesions,
			"accepted": accepted,
			"has_next": url != "",
		})
	}

	return nil
}

// streamTargetsMet reports whether every stream-harvested bucket is full.
func streamTargetsMet(buckets map[quiz.Label]*quiz.Bucket, streamLabels map[quiz.Label]bool) bool {
	for label := range streamLabels {
		bucket, ok := buckets[label]
		if !ok || !bucket.Full() {
			return false
		}
	}
	return true
}
