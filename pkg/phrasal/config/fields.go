package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/phrasal/pkg/phrasal/internalerr"
)

// ParseFields interprets a cut(1)-style field list such as "1,4" or
// "-3,6-". Fields are 1-based; an open run end is clamped to maxFields.
// The returned set maps selected field numbers to true.
func ParseFields(spec string, maxFields int) (map[int]bool, error) {
	selection := make(map[int]bool)
	for _, f := range strings.Split(spec, ",") {
		if f == "" {
			continue
		}
		parts := strings.Split(f, "-")
		switch len(parts) {
		case 1:
			n, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, fmt.Errorf("%w: bad field %q", internalerr.ErrInvalidConfig, f)
			}
			selection[n] = true
		case 2:
			start, end := 1, maxFields
			var err error
			if parts[0] != "" {
				if start, err = strconv.Atoi(parts[0]); err != nil {
					return nil, fmt.Errorf("%w: bad field run %q", internalerr.ErrInvalidConfig, f)
				}
			}
			if parts[1] != "" {
				if end, err = strconv.Atoi(parts[1]); err != nil {
					return nil, fmt.Errorf("%w: bad field run %q", internalerr.ErrInvalidConfig, f)
				}
			}
			for n := start; n <= end; n++ {
				selection[n] = true
			}
		default:
			return nil, fmt.Errorf("%w: bad field run %q", internalerr.ErrInvalidConfig, f)
		}
	}
	return selection, nil
}
