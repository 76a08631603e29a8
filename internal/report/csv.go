package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/xaulosky/travel-suites-app/internal/dates"
)

var (
	dailyHeaders  = []string{"Departamento", "Dirección", "Check-out", "Noches", "Próxima Reserva", "Back-to-Back"}
	weeklyHeaders = []string{"Fecha", "Día", "Departamento", "Dirección", "Noches"}
)

// WriteDailyCSV writes a daily report. Every data cell is quoted.
func WriteDailyCSV(w io.Writer, records []CheckoutRecord) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, dailyHeaders)

	for _, r := range records {
		next := "Disponible"
		if r.NextBooking != nil {
			next = dates.Format(r.NextBooking.Start)
		}
		b2b := "No"
		if r.IsBackToBack {
			b2b = "Sí"
		}
		writeRow(bw,
			r.Property.Name,
			orNA(r.Property.Address),
			dates.Format(r.Event.End),
			strconv.Itoa(r.Nights),
			next,
			b2b,
		)
	}
	return bw.Flush()
}

// WriteWeeklyCSV writes a weekly report, one row per check-out and a
// placeholder row for days without any.
func WriteWeeklyCSV(w io.Writer, week Week) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, weeklyHeaders)

	for _, d := range week.Days {
		if len(d.Checkouts) == 0 {
			writeRow(bw, d.Date, d.DayName, "Sin check-outs", "", "")
			continue
		}
		for _, r := range d.Checkouts {
			writeRow(bw, d.Date, d.DayName, r.Property.Name, orNA(r.Property.Address), strconv.Itoa(r.Nights))
		}
	}
	return bw.Flush()
}

// DailyFilename and WeeklyFilename name downloads.
func DailyFilename(date string) string  { return "checkouts-" + date + ".csv" }
func WeeklyFilename(start string) string { return "checkouts-semana-" + start + ".csv" }

func writeHeader(w *bufio.Writer, headers []string) {
	w.WriteString(strings.Join(headers, ","))
	w.WriteByte('\n')
}

func writeRow(w *bufio.Writer, cells ...string) {
	for i, c := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(c, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
