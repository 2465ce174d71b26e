package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const WorldBankAPI = "https://api.worldbank.org/v2"

// IndicatorSource provides the observations of one indicator for all
// countries and aggregates over a range of years.
type IndicatorSource interface {
	// Name identifies where the data comes from, e.g. the API base URL.
	Name() string
	FetchIndicator(ctx context.Context, id Indicator, start, end int) (*Series, error)
}

// CountrySource provides the country listing used as metadata.
type CountrySource interface {
	FetchCountries(ctx context.Context) ([]*CountryInfo, error)
}

// WorldBank is a client for the World Bank indicators API (v2).
//
// See: https://datahelpdesk.worldbank.org/knowledgebase/articles/889392
type WorldBank struct {
	BaseURL string
	PerPage int
	Client  *http.Client
}

func NewWorldBank(baseURL string) *WorldBank {
	if baseURL == "" {
		baseURL = WorldBankAPI
	}
	return &WorldBank{
		BaseURL: strings.TrimRight(baseURL, "/"),
		PerPage: 20000,
		Client:  http.DefaultClient,
	}
}

func (wb *WorldBank) Name() string {
	return wb.BaseURL
}

// The API is inconsistent about numbers in the page header, per_page is
// sometimes a string.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %s", data)
	}
	*i = flexInt(v)
	return nil
}

type wbPage struct {
	Page    flexInt `json:"page"`
	Pages   flexInt `json:"pages"`
	PerPage flexInt `json:"per_page"`
	Total   flexInt `json:"total"`
	Message []struct {
		ID    string `json:"id"`
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"message"`
}

type wbRef struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type wbObservation struct {
	Indicator       wbRef    `json:"indicator"`
	Country         wbRef    `json:"country"`
	CountryISO3Code string   `json:"countryiso3code"`
	Date            string   `json:"date"`
	Value           *float64 `json:"value"`
}

type wbCountry struct {
	ID          string `json:"id"`
	ISO2Code    string `json:"iso2Code"`
	Name        string `json:"name"`
	Region      wbRef  `json:"region"`
	AdminRegion wbRef  `json:"adminregion"`
	IncomeLevel wbRef  `json:"incomeLevel"`
	LendingType wbRef  `json:"lendingType"`
	CapitalCity string `json:"capitalCity"`
	Longitude   string `json:"longitude"`
	Latitude    string `json:"latitude"`
}

// fetchPages walks all pages of a listing, passing each page's items to handle.
func (wb *WorldBank) fetchPages(ctx context.Context, endpoint string, query url.Values, handle func(items json.RawMessage) error) error {
	for page := 1; ; page++ {
		query.Set("format", "json")
		query.Set("per_page", strconv.Itoa(wb.PerPage))
		query.Set("page", strconv.Itoa(page))

		data, err := download(ctx, wb.Client, wb.BaseURL+endpoint+"?"+query.Encode())
		if err != nil {
			return err
		}

		var body []json.RawMessage
		if err := json.Unmarshal(data, &body); err != nil {
			return fmt.Errorf("could not parse response of %s: %w", endpoint, err)
		}
		if len(body) == 0 {
			return fmt.Errorf("empty response of %s", endpoint)
		}

		var header wbPage
		if err := json.Unmarshal(body[0], &header); err != nil {
			return fmt.Errorf("could not parse page header of %s: %w", endpoint, err)
		}
		if len(header.Message) > 0 {
			m := header.Message[0]
			return fmt.Errorf("world bank api error %s (%s): %s", m.ID, m.Key, strings.TrimSpace(m.Value))
		}

		if len(body) > 1 {
			if err := handle(body[1]); err != nil {
				return err
			}
		}

		if int(header.Pages) <= page {
			return nil
		}
	}
}

func (wb *WorldBank) FetchIndicator(ctx context.Context, id Indicator, start, end int) (*Series, error) {
	s := &Series{Indicator: id}

	query := url.Values{}
	query.Set("date", fmt.Sprintf("%d:%d", start, end))

	err := wb.fetchPages(ctx, "/country/all/indicator/"+url.PathEscape(string(id)), query, func(items json.RawMessage) error {
		var obs []wbObservation
		if err := json.Unmarshal(items, &obs); err != nil {
			return fmt.Errorf("could not parse observations of %s: %w", id, err)
		}
		for _, o := range obs {
			year, err := strconv.Atoi(o.Date)
			if err != nil {
				return fmt.Errorf("invalid date '%s' for %s in %s", o.Date, o.Country.Value, id)
			}
			v := Null
			if o.Value != nil {
				v = Some(*o.Value)
			}
			s.Observations = append(s.Observations, Observation{
				Country: o.Country.Value,
				ISO3:    o.CountryISO3Code,
				Year:    year,
				Value:   v,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (wb *WorldBank) FetchCountries(ctx context.Context) ([]*CountryInfo, error) {
	var countries []*CountryInfo

	err := wb.fetchPages(ctx, "/country", url.Values{}, func(items json.RawMessage) error {
		var cs []wbCountry
		if err := json.Unmarshal(items, &cs); err != nil {
			return fmt.Errorf("could not parse countries: %w", err)
		}
		for _, c := range cs {
			countries = append(countries, &CountryInfo{
				ISO3c:       c.ID,
				ISO2c:       c.ISO2Code,
				Name:        c.Name,
				Region:      strings.TrimSpace(c.Region.Value),
				AdminRegion: strings.TrimSpace(c.AdminRegion.Value),
				IncomeLevel: strings.TrimSpace(c.IncomeLevel.Value),
				LendingType: strings.TrimSpace(c.LendingType.Value),
				CapitalCity: c.CapitalCity,
				Longitude:   c.Longitude,
				Latitude:    c.Latitude,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return countries, nil
}
