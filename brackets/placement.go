package brackets

import (
	"fmt"
	"sort"
)

// ResolvePlacement assigns final positions 1..N on the ranking table from
// the bracket outcome. The champion takes position 1; elimination buckets
// are consumed latest round first, since surviving longer means a better
// finish. Inside a bucket, teams are ordered by descending best score, with
// ties kept in bucket order, which follows the original seed order.
//
// The result is a dense ranking with no gaps or duplicates; every seed in
// the table receives exactly one position.
func ResolvePlacement(table *RankingTable, champion Seed, buckets [][]Seed) error {
	pos := 1
	if err := table.setPosition(champion.TeamID, pos); err != nil {
		return err
	}
	pos++

	for b := len(buckets) - 1; b >= 0; b-- {
		bucket := make([]Seed, len(buckets[b]))
		copy(bucket, buckets[b])

		var sortErr error
		sort.SliceStable(bucket, func(i, j int) bool {
			si, err := table.BestScore(bucket[i].TeamID)
			if err != nil {
				sortErr = err
				return false
			}
			sj, err := table.BestScore(bucket[j].TeamID)
			if err != nil {
				sortErr = err
				return false
			}
			return si > sj
		})
		if sortErr != nil {
			return sortErr
		}

		for _, seed := range bucket {
			if err := table.setPosition(seed.TeamID, pos); err != nil {
				return err
			}
			pos++
		}
	}

	if placed := pos - 1; placed != table.Len() {
		return fmt.Errorf("placement covered %d of %d seeds", placed, table.Len())
	}
	return nil
}
