// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package attrs

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Attr represents each of the keys to be included in the output. Key is a
// gjson path into the user document, so nested fields such as company.name
// or address.geo.lat work.
type Attr struct {
	// The JSON key to extract from the user object.
	Key string `yaml:"key"`
	// Should this Attr be included in output or was it switched off with !?
	Include bool `yaml:"include"`
	// The key to use in the output. This is also the column title when
	// output=text.
	OutputKey string `yaml:"outputKey"`
	// Transformation spec to apply to the output value.
	TransformSpec string `yaml:"transformSpec"`
}

var lengthRe = regexp.MustCompile(`-?\d+`)

// Transform applies the attr's transform spec to value. Non-string values are
// returned untouched.
func (a *Attr) Transform(value interface{}) interface{} {
	result, ok := value.(string)
	if !ok {
		return value
	}

	// We need to know which case transformation appears last. This covers the
	// case where there has been a global case transformation prepended to the
	// attrs transformation and, thus, allows the attr's to carry more weight.
	// IOW...  --attrs '*::U,name::l' will be lower case.
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")

	if lastL > lastU {
		result = strings.ToLower(result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
	}

	// Is it a length-based transformation? The last number wins, for the same
	// reason as above.
	if a.TransformSpec != "" {
		match := lengthRe.FindAllString(a.TransformSpec, -1)
		if len(match) != 0 {
			l, _ := strconv.Atoi(match[len(match)-1])
			abs := int(math.Abs(float64(l)))
			if len(result) > abs {
				if l < 0 {
					lr := abs/2 - 1
					if lr < 1 {
						lr = 1
					}
					left := result[0:lr]
					right := result[len(result)-lr:]
					result = left + ".." + right
				} else {
					result = result[:l]
				}
			}
		}
	}

	return result
}

// Extract pulls the attr's value out of a JSON document.
func (a *Attr) Extract(doc gjson.Result) interface{} {
	v := doc.Get(a.Key)
	if !v.Exists() {
		return nil
	}
	return v.Value()
}

type AttrList []Attr

// Return a string representation of the AttrList. This should match the format
// of the original --attrs flag.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Parse each spec from the --attrs flag and add it to the AttrList.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

	const (
		jsonIdx = iota
		outputIdx
		transformIdx
	)

	// There are three : delimited fields in each spec. The first is the key to
	// extract from the JSON object. The second is the key to use in the output.
	// The third is the transformation spec to apply to the output value. The
	// latter two are optional. The output key will default to the last
	// section of the JSON key.
	specs := strings.Split(value, ",")
specloop:
	for _, spec := range specs {
		if strings.TrimSpace(spec) == "" {
			continue
		}

		attr := Attr{
			Include: true,
		}

		fields := strings.Split(spec, ":")
		if len(fields) > transformIdx+1 {
			return fmt.Errorf("too many fields in attr spec %q", spec)
		}

		// The first field is the key to extract from the JSON payload. If it
		// begins with a !, it is excluded from the output.
		attr.Key = strings.TrimSpace(fields[jsonIdx])
		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = attr.Key[1:]
		}
		if attr.Key == "" {
			return fmt.Errorf("missing key in attr spec %q", spec)
		}

		if attr.Key == "*" {
			attr.Include = false
		}

		// If there is only one field the output key becomes the last segment of
		// the . notation.
		if len(fields) == 1 {
			segments := strings.Split(attr.Key, ".")
			attr.OutputKey = segments[len(segments)-1]
		} else {
			if fields[outputIdx] != "" {
				attr.OutputKey = strings.TrimSpace(fields[outputIdx])
			} else {
				attr.OutputKey = attr.Key
			}
		}

		if len(fields) > transformIdx {
			attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		// If the attr already exists in the list (because it's one of the defaults
		// or the user double-entered it) just apply the OutputKey, Include and
		// TransformSpec to the existing Attr.
		for i := range *a {
			if (*a)[i].Key == attr.Key || (*a)[i].OutputKey == attr.Key {
				(*a)[i].Include = attr.Include
				(*a)[i].OutputKey = attr.OutputKey
				(*a)[i].TransformSpec = attr.TransformSpec
				continue specloop
			}
		}

		*a = append(*a, attr)
	}

	return nil
}

// SetGlobalTransformSpec inserts a global transform spec into the front of all
// attrs in the list.
func (alist *AttrList) SetGlobalTransformSpec() {
	spec := ""

	// Find the global transform spec. If there is more than one, we're not
	// dealing with it and just taking the first.
	for a := range *alist {
		if (*alist)[a].Key == "*" {
			spec = (*alist)[a].TransformSpec
			break
		}
	}

	if spec == "" {
		return
	}

	for a := range *alist {
		if (*alist)[a].Key == "*" {
			continue
		}
		(*alist)[a].TransformSpec = spec + "," + (*alist)[a].TransformSpec
	}
}

// Included returns the attrs that make it to output, in order.
func (a AttrList) Included() AttrList {
	out := make(AttrList, 0, len(a))
	for _, attr := range a {
		if attr.Include {
			out = append(out, attr)
		}
	}
	return out
}

// Titles returns the output keys of the included attrs.
func (a AttrList) Titles() []string {
	inc := a.Included()
	titles := make([]string, 0, len(inc))
	for _, attr := range inc {
		titles = append(titles, attr.OutputKey)
	}
	return titles
}

func (a *AttrList) Type() string {
	return "list"
}
