package chi

import (
	"time"

	"github.com/sbomdex/sbomdex/internal/domain/sbom"
	catalogrepo "github.com/sbomdex/sbomdex/internal/repository/catalog"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type sbomResponse struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	AppName         string    `json:"app_name"`
	Category        string    `json:"category,omitempty"`
	OperatingSystem string    `json:"operating_system,omitempty"`
	AppBinaryType   string    `json:"app_binary_type,omitempty"`
	Supplier        string    `json:"supplier,omitempty"`
	Manufacturer    string    `json:"manufacturer,omitempty"`
	Version         string    `json:"version,omitempty"`
	Cost            float64   `json:"cost"`
	TotalComponents int       `json:"total_components"`
	UniqueLicenses  int       `json:"unique_licenses"`
	Description     string    `json:"description,omitempty"`
	UploadDate      time.Time `json:"upload_date"`
}

type sbomListResponse struct {
	Items []sbomResponse `json:"items"`
	Total int            `json:"total"`
}

type autocompleteResponse struct {
	Suggestions []string `json:"suggestions"`
}

type facetsResponse struct {
	Categories       []string `json:"categories"`
	OperatingSystems []string `json:"operating_systems"`
	AppBinaryTypes   []string `json:"app_binary_types"`
	Suppliers        []string `json:"suppliers"`
}

type searchRequest struct {
	SBOMFile string `json:"sbom_file"`
	Keyword  string `json:"keyword"`
}

type searchResponse struct {
	SBOMFile string           `json:"sbom_file"`
	Keyword  string           `json:"keyword"`
	Results  []sbom.Component `json:"results"`
	Total    int              `json:"total"`
}

type compareRequest struct {
	SBOM1 string `json:"sbom1"`
	SBOM2 string `json:"sbom2"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func recordToResponse(rec catalogrepo.Record) sbomResponse {
	return sbomResponse{
		ID:              rec.ID,
		Filename:        rec.Filename,
		AppName:         rec.AppName,
		Category:        rec.Category,
		OperatingSystem: rec.OperatingSystem,
		AppBinaryType:   rec.AppBinaryType,
		Supplier:        rec.Supplier,
		Manufacturer:    rec.Manufacturer,
		Version:         rec.Version,
		Cost:            rec.Cost,
		TotalComponents: rec.TotalComponents,
		UniqueLicenses:  rec.UniqueLicenses,
		Description:     rec.Description,
		UploadDate:      rec.UploadDate,
	}
}
