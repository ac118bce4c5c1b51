// Package biomarker maps free-form lab labels onto canonical markers and
// cleans the raw values that accompany them.
package biomarker

// Marker is the canonical identifier of one blood measurement, independent of
// how a lab export labelled it.
type Marker string

const (
	Age            Marker = "age"
	Albumin        Marker = "albumin"
	ALP            Marker = "alp"
	Urea           Marker = "urea"
	Cholesterol    Marker = "cholesterol"
	Creatinine     Marker = "creatinine"
	CystatinC      Marker = "cystatin-c"
	HbA1c          Marker = "hba1c"
	HsCRP          Marker = "hscrp"
	GGT            Marker = "ggt"
	RBC            Marker = "rbc"
	MCV            Marker = "mcv"
	RDW            Marker = "rdw"
	MonocytesAbs   Marker = "mono-abs"
	NeutrophilsAbs Marker = "neu-abs"
	Lymphocytes    Marker = "lymphocytes"
	ALT            Marker = "alt"
	SHBG           Marker = "shbg"
	VitaminD       Marker = "vitamin-d"
	Glucose        Marker = "glucose"
	MCH            Marker = "mch"
	ApoA1          Marker = "apoa1"
	WBC            Marker = "wbc"
)

// allMarkers lists every canonical marker in a stable order.
var allMarkers = []Marker{
	Age, Albumin, ALP, Urea, Cholesterol, Creatinine, CystatinC, HbA1c, HsCRP,
	GGT, RBC, MCV, RDW, MonocytesAbs, NeutrophilsAbs, Lymphocytes, ALT, SHBG,
	VitaminD, Glucose, MCH, ApoA1, WBC,
}

// Markers returns all canonical markers.
func Markers() []Marker {
	out := make([]Marker, len(allMarkers))
	copy(out, allMarkers)
	return out
}

func (m Marker) String() string {
	return string(m)
}

// Valid reports whether m is one of the canonical markers.
func (m Marker) Valid() bool {
	for _, known := range allMarkers {
		if m == known {
			return true
		}
	}
	return false
}
