// src/parsers/factory.go
package parsers

import (
	"fmt"

	"github.com/username/finsight/src/models"
	"github.com/username/finsight/src/parsers/quickbooks"
	"github.com/username/finsight/src/parsers/rootfi"
)

func GetParser(source string) (Parser, error) {
	switch source {
	case models.SourceQuickBooks:
		return quickbooks.NewParser(), nil
	case models.SourceRootfi:
		return rootfi.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}
