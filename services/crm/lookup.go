package main

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"

	"github.com/contabilflow/backend/shared/utils"
)

var digitsOnly = regexp.MustCompile(`[^0-9]`)

// LookupClient queries the public registry API (BrasilAPI-compatible) for
// CNPJ and CEP data, used to prefill client records.
type LookupClient struct {
	httpClient *resty.Client
	breaker    *utils.CircuitBreaker
}

// NewLookupClient builds the registry client from REGISTRY_API_URL.
func NewLookupClient() *LookupClient {
	baseURL := os.Getenv("REGISTRY_API_URL")
	if baseURL == "" {
		baseURL = "https://brasilapi.com.br/api"
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")

	return &LookupClient{
		httpClient: client,
		breaker:    utils.NewCircuitBreaker(5, 30*time.Second),
	}
}

// CNPJInfo is the company registry record returned by the lookup
type CNPJInfo struct {
	CNPJ         string `json:"cnpj"`
	LegalName    string `json:"razao_social"`
	TradeName    string `json:"nome_fantasia"`
	Street       string `json:"logradouro"`
	Number       string `json:"numero"`
	Neighborhood string `json:"bairro"`
	City         string `json:"municipio"`
	State        string `json:"uf"`
	ZipCode      string `json:"cep"`
	Email        string `json:"email"`
	Phone        string `json:"ddd_telefone_1"`
}

// CEPInfo is the postal-code record returned by the lookup
type CEPInfo struct {
	CEP          string `json:"cep"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
}

// LookupCNPJ fetches registry data for a company tax id.
func (lc *LookupClient) LookupCNPJ(cnpj string) (*CNPJInfo, error) {
	cnpj = digitsOnly.ReplaceAllString(cnpj, "")
	if len(cnpj) != 14 {
		return nil, utils.ValidationError("CNPJ must have 14 digits")
	}

	var info CNPJInfo
	err := lc.breaker.Call(func() error {
		resp, err := lc.httpClient.R().
			SetResult(&info).
			Get("/cnpj/v1/" + cnpj)
		if err != nil {
			return utils.WrapError(utils.KindTransport, "failed to reach registry API", err)
		}
		if resp.StatusCode() == 404 {
			return utils.NotFoundError("CNPJ not found in registry")
		}
		if resp.IsError() {
			return utils.NewError(utils.KindTransport,
				fmt.Sprintf("registry API returned status %d", resp.StatusCode()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// LookupCEP fetches address data for a postal code.
func (lc *LookupClient) LookupCEP(cep string) (*CEPInfo, error) {
	cep = digitsOnly.ReplaceAllString(cep, "")
	if len(cep) != 8 {
		return nil, utils.ValidationError("CEP must have 8 digits")
	}

	var info CEPInfo
	err := lc.breaker.Call(func() error {
		resp, err := lc.httpClient.R().
			SetResult(&info).
			Get("/cep/v1/" + cep)
		if err != nil {
			return utils.WrapError(utils.KindTransport, "failed to reach registry API", err)
		}
		if resp.StatusCode() == 404 {
			return utils.NotFoundError("CEP not found")
		}
		if resp.IsError() {
			return utils.NewError(utils.KindTransport,
				fmt.Sprintf("registry API returned status %d", resp.StatusCode()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// handleLookupCNPJ serves registry data to prefill a client form
func handleLookupCNPJ(lookup *LookupClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := lookup.LookupCNPJ(c.Param("cnpj"))
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
		utils.OKResponse(c, "CNPJ found", info)
	}
}

// handleLookupCEP serves address data for a postal code
func handleLookupCEP(lookup *LookupClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := lookup.LookupCEP(c.Param("cep"))
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
		utils.OKResponse(c, "CEP found", info)
	}
}
