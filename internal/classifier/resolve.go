package classifier

import (
	"errors"
	"fmt"
	"os"
)

// ErrWeightsNotFound reports that no candidate weights file exists.
var ErrWeightsNotFound = errors.New("model weights not found")

// ResolveWeights returns the first existing regular file among the primary
// path and the ordered fallbacks.
func ResolveWeights(primary string, fallbacks []string) (string, error) {
	candidates := make([]string, 0, 1+len(fallbacks))
	candidates = append(candidates, primary)
	candidates = append(candidates, fallbacks...)

	for _, path := range candidates {
		if path == "" {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: checked %v", ErrWeightsNotFound, candidates)
}
