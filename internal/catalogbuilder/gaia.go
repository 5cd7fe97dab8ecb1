package catalogbuilder

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"text/template"

	"github.com/lodestar-space/startracker/pkg/units"
)

/*****************************************************************************************************************/

// Star is a single catalog row as fetched from the GAIA TAP service,
// trimmed to the fields a Pyramid database actually needs: position and
// brightness. Proper motion and parallax are not modelled; the frozen
// database is a snapshot at Result.BuildEpoch, not a propagated one.
type Star struct {
	SourceID  string
	RA        units.Degrees
	Dec       units.Degrees
	Magnitude float64
}

/*****************************************************************************************************************/

// gaiaRecord names the ADQL columns pulled from gaiadr3.gaia_source. Only
// photometry-clean sources are requested (phot_proc_mode = '0'), matching
// the teacher client's own gold-standard filter.
const gaiaRecord = `source_id, ra, dec, phot_g_mean_mag`

/*****************************************************************************************************************/

// GAIAQuery parameterises a single cone search against the GAIA DR3
// archive.
type GAIAQuery struct {
	RA            float64 // degrees
	Dec           float64 // degrees
	RadiusDegrees float64
	MagnitudeMax  float64
}

/*****************************************************************************************************************/

// GAIAClient talks to the GAIA TAP/ADQL synchronous query endpoint over
// HTTP POST, the same protocol the teacher's pkg/catalog.GAIAServiceClient
// uses.
type GAIAClient struct {
	URI        string
	HTTPClient *http.Client
}

/*****************************************************************************************************************/

// NewGAIAClient returns a client pointed at ESA's public TAP server.
func NewGAIAClient() *GAIAClient {
	return &GAIAClient{
		URI:        "https://gea.esac.esa.int/tap-server/tap/sync",
		HTTPClient: http.DefaultClient,
	}
}

/*****************************************************************************************************************/

func (g *GAIAClient) buildADQL(q GAIAQuery) (string, error) {
	const queryTemplate = `
		SELECT {{.Record}}
		FROM gaiadr3.gaia_source
		WHERE CONTAINS(
			POINT('ICRS', ra, dec),
			CIRCLE('ICRS', {{.RA}}, {{.Dec}}, {{.Radius}})
		) = 1 AND phot_g_mean_mag < {{.Limit}} AND phot_proc_mode = '0'
	`
	tmpl, err := template.New("adql").Parse(queryTemplate)
	if err != nil {
		return "", fmt.Errorf("parse adql template: %w", err)
	}

	data := struct {
		Record string
		RA     float64
		Dec    float64
		Radius float64
		Limit  float64
	}{
		Record: gaiaRecord,
		RA:     q.RA,
		Dec:    q.Dec,
		Radius: q.RadiusDegrees,
		Limit:  q.MagnitudeMax,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute adql template: %w", err)
	}
	return buf.String(), nil
}

/*****************************************************************************************************************/

// ConeSearch runs a single radial ADQL query and parses the CSV response
// into Stars.
func (g *GAIAClient) ConeSearch(q GAIAQuery) ([]Star, error) {
	adql, err := g.buildADQL(q)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("REQUEST", "doQuery")
	form.Set("LANG", "ADQL")
	form.Set("FORMAT", "csv")
	form.Set("QUERY", adql)

	resp, err := g.HTTPClient.PostForm(g.URI, form)
	if err != nil {
		return nil, fmt.Errorf("gaia tap request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gaia tap query failed: %s", string(body))
	}

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse gaia csv: %w", err)
	}
	if len(records) < 1 {
		return nil, nil
	}

	stars := make([]Star, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 4 {
			continue
		}
		ra, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		dec, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			continue
		}
		mag, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			continue
		}
		stars = append(stars, Star{SourceID: rec[0], RA: units.Degrees(ra), Dec: units.Degrees(dec), Magnitude: mag})
	}
	return stars, nil
}

/*****************************************************************************************************************/
