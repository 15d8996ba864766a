package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yuwankavi/Gas-Project/internal/core/domain"
	"github.com/yuwankavi/Gas-Project/internal/core/spatial"
)

// readSellers decodes a JSON array of sellers in API wire shape.
func readSellers(path string) ([]domain.Seller, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sellers []domain.Seller
	if err := json.Unmarshal(data, &sellers); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return sellers, nil
}

// loadIndex inserts sellers in file order, reporting rejected entries.
func loadIndex(sellers []domain.Seller) (*spatial.Index, int) {
	idx := spatial.New()
	rejected := 0
	for i, s := range sellers {
		if _, err := idx.Insert(s); err != nil {
			rejected++
			if verbose {
				fmt.Fprintf(os.Stderr, "skipping entry %d: %s\n", i, domain.MessageOf(err))
			}
		}
	}
	return idx, rejected
}

func runNear(cmd *cobra.Command, args []string) error {
	sellers, err := readSellers(nearFile)
	if err != nil {
		return err
	}
	idx, rejected := loadIndex(sellers)
	if verbose {
		fmt.Fprintf(os.Stderr, "indexed %d sellers, rejected %d\n", idx.Len(), rejected)
	}

	p, err := domain.NewGeoPoint(nearLng, nearLat)
	if err != nil {
		return err
	}

	var hits []domain.NearbySeller
	if nearMaxMeters < 0 {
		hits, err = idx.QueryNearUnbounded(p)
	} else {
		hits, err = idx.QueryNear(p, nearMaxMeters/1000)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(domain.AnnotateAll(hits))
}
