package revolveaux

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

const reportWidth = 60

// WriteReport writes a human readable summary of a volume computation to w.
func WriteReport(w io.Writer, req Request, volume float64) error {
	bw := bufio.NewWriter(w)
	banner := strings.Repeat("=", reportWidth)
	spec := req.Spec
	bw.WriteString(banner + "\n")
	bw.WriteString("VOLUME OF REVOLUTION - RESULTS\n")
	bw.WriteString(banner + "\n\n")

	bw.WriteString("FUNCTIONS:\n")
	for i, src := range req.Exprs {
		slot := i + 1
		if i < len(req.Slots) {
			slot = req.Slots[i]
		}
		bw.WriteString("  f" + strconv.Itoa(slot) + "(x) = " + src)
		if i == spec.Revolve {
			bw.WriteString(" ⭐ (REVOLVE)")
		}
		bw.WriteByte('\n')
	}

	bw.WriteString("\nPARAMETERS:\n")
	bw.WriteString("  Axis of revolution: " + strings.ToUpper(spec.Axis.String()) + "-axis\n")
	bw.WriteString("  Lower limit (a): " + formatParam(spec.A) + "\n")
	bw.WriteString("  Upper limit (b): " + formatParam(spec.B) + "\n")
	method := spec.Method.String()
	bw.WriteString("  Method: " + strings.ToUpper(method[:1]) + method[1:] + "\n")
	bw.WriteString("  Δx step size: " + formatParam(spec.DX) + "\n")
	cross := "No"
	if req.CrossSections {
		cross = "Yes"
	}
	bw.WriteString("  Show cross-sections: " + cross + "\n")

	bw.WriteString("\nRESULTS:\n")
	bw.WriteString("  Calculated Volume: " + strconv.FormatFloat(volume, 'f', 6, 64) + " cubic units\n")

	bw.WriteString("\nEXPORT:\n")
	bw.WriteString("  3D model can be exported as STL for 3D printing\n")
	bw.WriteString(banner)
	return bw.Flush()
}

// formatParam formats a parameter with the shortest exact representation,
// keeping a decimal point on integral values: 2 is printed as "2.0".
func formatParam(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if v == math.Trunc(v) && !math.IsInf(v, 0) && !strings.ContainsAny(s, "e.") {
		s += ".0"
	}
	return s
}
