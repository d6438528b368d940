package gradingregistry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
)

// HTTPGradingRegistry queries the grading-authority cert registry
// (PSA/BGS/CGC facade). Lookups are read-only.
type HTTPGradingRegistry struct {
	Address string
	client  *http.Client
}

func NewHTTPGradingRegistry(address string, timeout time.Duration) *HTTPGradingRegistry {
	return &HTTPGradingRegistry{
		Address: address,
		client:  &http.Client{Timeout: timeout},
	}
}

type certResponse struct {
	GradingCompany   string `json:"grading_company"`
	CertNumber       string `json:"cert_number"`
	CardName         string `json:"card_name"`
	Grade            string `json:"grade"`
	PopulationHigher int64  `json:"population_higher"`
	Valid            bool   `json:"valid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (r *HTTPGradingRegistry) LookupCert(ctx context.Context, gradingCompany, certNumber string) (*domain.CertRecord, error) {
	url := fmt.Sprintf("%s/certs/%s/%s", r.Address, gradingCompany, certNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	response, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	responseBodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		var cert certResponse
		if err := json.Unmarshal(responseBodyBytes, &cert); err != nil {
			return nil, err
		}
		return &domain.CertRecord{
			GradingCompany:   cert.GradingCompany,
			CertNumber:       cert.CertNumber,
			CardName:         cert.CardName,
			Grade:            cert.Grade,
			PopulationHigher: cert.PopulationHigher,
			Valid:            cert.Valid,
		}, nil
	}
	if response.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}

	var errResponse errorResponse
	if err := json.Unmarshal(responseBodyBytes, &errResponse); err != nil {
		return nil, fmt.Errorf("grading registry returned status %d", response.StatusCode)
	}
	return nil, errors.New(errResponse.Error)
}
