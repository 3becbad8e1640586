// Package table converts staffsync values into rows for table output.
package table

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FursAndrey/staffsync"
	"github.com/FursAndrey/staffsync/pkg/constants"
	"github.com/FursAndrey/staffsync/pkg/profiles"
	"github.com/FursAndrey/staffsync/pkg/records"
	"github.com/FursAndrey/staffsync/pkg/sources"
	"github.com/FursAndrey/staffsync/pkg/store"
	pkgsync "github.com/FursAndrey/staffsync/pkg/sync"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents data formatted for table output.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

var title = cases.Title(language.English)

// Title renders a snake_case name as a title-cased header.
func Title(name string) string {
	return title.String(strings.ReplaceAll(name, "_", " "))
}

// ResultToTableData converts a sync result to per-category counts. Categories
// that were not written are omitted.
func ResultToTableData(result *pkgsync.Result) Data {
	data := Data{
		Headers:         []string{"Category", "Created", "Updated"},
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight},
	}
	for _, c := range profiles.All() {
		cr, ok := result.Categories[c.String()]
		if !ok {
			continue
		}
		data.Rows = append(data.Rows, []string{
			Title(c.String()),
			strconv.Itoa(cr.Created),
			strconv.Itoa(cr.Updated),
		})
	}
	data.Rows = append(data.Rows, []string{
		"Total",
		strconv.Itoa(result.ProfilesCreated),
		strconv.Itoa(result.ProfilesUpdated),
	})
	return data
}

// FailuresToTableData lists failed employees.
func FailuresToTableData(failures []pkgsync.Failure) Data {
	data := Data{Headers: []string{"Fiz Code", "Category", "Kind", "Message"}}
	for _, f := range failures {
		category := "-"
		if f.Category != "" {
			category = Title(f.Category)
		}
		data.Rows = append(data.Rows, []string{f.FizCode, category, string(f.Kind), f.Message})
	}
	return data
}

// OwnersToTableData lists owners.
func OwnersToTableData(owners []store.Owner) Data {
	data := Data{
		Headers:         []string{"ID", "Name", "Mail", "Active", "Created"},
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignCenter, AlignLeft},
	}
	for _, o := range owners {
		mail := "-"
		if o.Mail != nil {
			mail = *o.Mail
		}
		data.Rows = append(data.Rows, []string{
			strconv.FormatInt(o.ID, 10),
			o.Name,
			mail,
			strconv.FormatBool(o.Active),
			o.CreatedAt.Format(constants.TimestampLayout),
		})
	}
	return data
}

// ProfilesToTableData lists every stored field of an owner's profiles, one
// row per field. Multi-valued fields join their values with " | ".
func ProfilesToTableData(view *staffsync.OwnerProfiles) Data {
	data := Data{Headers: []string{"Category", "Field", "Value"}}
	for _, c := range profiles.All() {
		p, ok := view.Profile(c)
		if !ok {
			continue
		}
		for _, name := range p.FieldNames() {
			values := p.List(name)
			parts := make([]string, len(values))
			for i, v := range values {
				parts[i] = formatValue(v)
			}
			data.Rows = append(data.Rows, []string{Title(c.String()), name, strings.Join(parts, " | ")})
		}
	}
	return data
}

// RecordsToTableData lays records out with one column per key, fiz_code first.
func RecordsToTableData(recs []records.Record) Data {
	seen := make(map[string]bool)
	var keys []string
	for _, r := range recs {
		for k := range r {
			if !seen[k] && k != constants.KeyField {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	keys = append([]string{constants.KeyField}, keys...)

	data := Data{Headers: make([]string, len(keys))}
	for i, k := range keys {
		data.Headers[i] = Title(k)
	}
	for _, r := range recs {
		row := make([]string, len(keys))
		for i, k := range keys {
			v, ok := r[k]
			if !ok {
				row[i] = ""
				continue
			}
			row[i] = formatValue(v)
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// CountsToTableData lists the record count of every collection.
func CountsToTableData(counts map[sources.Collection]int) Data {
	data := Data{
		Headers:         []string{"Collection", "Records"},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
	for _, c := range sources.Collections() {
		data.Rows = append(data.Rows, []string{Title(c.String()), strconv.Itoa(counts[c])})
	}
	return data
}

func formatValue(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%v", v)
}
