package promo

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
)

const (
	unmatchedArticleMessage = "no matching promotion target data (unmatched Article)"
	unmatchedSiteMessage    = "no matching site target data (unmatched Site)"
)

// Merge left-joins inventory with the promotion targets on article, then with the
// site targets on site. Keys match exactly after trimming. A key matching several
// right-hand rows fans out into one row per match, in right-hand table order, so the
// result never has fewer rows than inventory. Inputs are not modified.
func Merge(inventory []domain.InventoryRecord, promotions []domain.PromotionTarget, sites []domain.SiteTarget) []domain.MergedRow {
	promoIndex := make(map[string][]int, len(promotions))
	for i, p := range promotions {
		key := strings.TrimSpace(p.Article)
		promoIndex[key] = append(promoIndex[key], i)
	}
	siteIndex := make(map[string][]int, len(sites))
	for i, s := range sites {
		key := strings.TrimSpace(s.Site)
		siteIndex[key] = append(siteIndex[key], i)
	}

	merged := make([]domain.MergedRow, 0, len(inventory))
	for _, inv := range inventory {
		// 1. Join on article
		byArticle := make([]domain.MergedRow, 0, 1)
		matches := promoIndex[strings.TrimSpace(inv.Article)]
		if len(matches) == 0 {
			row := domain.MergedRow{InventoryRecord: inv}
			row.Notes = inv.Notes.With(domain.Note{
				Code:    domain.NoteUnmatchedArticle,
				Field:   "Article",
				Message: unmatchedArticleMessage,
			})
			byArticle = append(byArticle, row)
		}
		for _, idx := range matches {
			p := promotions[idx]
			row := domain.MergedRow{
				InventoryRecord:  inv,
				GroupNo:          p.GroupNo,
				SKUTarget:        p.SKUTarget,
				TargetType:       p.TargetType,
				PromotionDays:    p.PromotionDays,
				TargetCoverDays:  p.TargetCoverDays,
				PromotionMatched: true,
			}
			row.Notes = inv.Notes.With(p.Notes...)
			byArticle = append(byArticle, row)
		}

		// 2. Join on site
		for _, row := range byArticle {
			siteMatches := siteIndex[strings.TrimSpace(inv.Site)]
			if len(siteMatches) == 0 {
				row.Notes = row.Notes.With(domain.Note{
					Code:    domain.NoteUnmatchedSite,
					Field:   "Site",
					Message: unmatchedSiteMessage,
				})
				merged = append(merged, row)
				continue
			}
			for n, idx := range siteMatches {
				s := sites[idx]
				out := row
				out.ShareHK = s.ShareHK
				out.ShareMO = s.ShareMO
				out.ShareALL = s.ShareALL
				out.SiteMatched = true
				out.Notes = row.Notes.With(s.Notes...)
				if len(siteMatches) > 1 {
					out.Notes = out.Notes.With(domain.Note{
						Code:  domain.NoteDuplicateSite,
						Field: "Site",
						Message: fmt.Sprintf("site %s matches %d site target rows (row %d of %d), demand is counted once per match",
							strings.TrimSpace(inv.Site), len(siteMatches), n+1, len(siteMatches)),
					})
				}
				merged = append(merged, out)
			}
		}
	}

	return merged
}
