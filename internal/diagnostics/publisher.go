package diagnostics

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"
	"gonum.org/v1/plot"

	"github.com/doismellburning/gnssrecv/internal/logging"
)

const defaultIntervalSeconds = 2

// filenameStrftime matches the teacher's own timestamped-output
// convention (src/xmit.go, src/tq.go): a strftime pattern rendered
// against time.Now() at the moment a file is written.
const filenameStrftime = "snapshot-%Y%m%dT%H%M%S"

// Publisher periodically renders a Snapshot to disk as a set of PNGs
// plus an index.html. It is entirely best-effort: Publish never
// returns an error to the caller, it only logs one.
type Publisher struct {
	outDir   string
	interval time.Duration

	mu      sync.Mutex
	history []publishedSnapshot
}

type publishedSnapshot struct {
	Name    string
	Epoch   uint64
	At      time.Time
	HasAcq  bool
	FixText string
}

// NewPublisher prepares a publisher writing under outDir. interval <=
// 0 uses the spec's default of 2 seconds.
func NewPublisher(outDir string, interval time.Duration) (*Publisher, error) {
	if interval <= 0 {
		interval = defaultIntervalSeconds * time.Second
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create diagnostic output dir: %w", err)
	}
	return &Publisher{outDir: outDir, interval: interval}, nil
}

// Interval returns the configured publish period, for a caller that
// wants to gate how often it bothers building a Snapshot at all.
func (p *Publisher) Interval() time.Duration { return p.interval }

// Publish renders one snapshot's plots and regenerates index.html.
// Any failure is logged and otherwise ignored; the pipeline keeps
// running either way (spec.md §6: "failure to write diagnostics must
// not perturb the pipeline").
func (p *Publisher) Publish(snap Snapshot) {
	name, err := strftime.Format(filenameStrftime, time.Now())
	if err != nil {
		logging.Warnf("diagnostics: timestamp format failed: %v", err)
		name = fmt.Sprintf("snapshot-%d", snap.Epoch)
	}

	if len(snap.Constellation) > 0 {
		pl, err := constellationPlot(snap.Constellation)
		p.renderPlot(pl, err, filepath.Join(p.outDir, name+"-constellation.png"))
	}
	if len(snap.CodeDiscriminator) > 0 || len(snap.CarrierDiscriminator) > 0 {
		pl, err := discriminatorPlot("Discriminator outputs", snap.CodeDiscriminator, snap.CarrierDiscriminator)
		p.renderPlot(pl, err, filepath.Join(p.outDir, name+"-discriminators.png"))
	}
	if snap.Acquisition != nil {
		pl, err := acquisitionSurfacePlot(snap.Acquisition)
		p.renderPlot(pl, err, filepath.Join(p.outDir, name+"-acquisition.png"))
	}

	p.mu.Lock()
	p.history = append(p.history, publishedSnapshot{
		Name:    name,
		Epoch:   snap.Epoch,
		At:      time.Now(),
		HasAcq:  snap.Acquisition != nil,
		FixText: snap.FixSummary,
	})
	if len(p.history) > maxIndexEntries {
		p.history = p.history[len(p.history)-maxIndexEntries:]
	}
	history := append([]publishedSnapshot(nil), p.history...)
	p.mu.Unlock()

	p.writeIndex(history)
}

func (p *Publisher) renderPlot(pl *plot.Plot, buildErr error, path string) {
	if buildErr != nil {
		logging.Warnf("diagnostics: build plot %s: %v", path, buildErr)
		return
	}
	if err := savePNG(pl, path); err != nil {
		logging.Warnf("diagnostics: %v", err)
	}
}

const maxIndexEntries = 60

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><title>gnssrecv diagnostics</title></head>
<body>
<h1>gnssrecv diagnostics</h1>
<table border="1" cellpadding="4">
<tr><th>Time</th><th>Epoch</th><th>Fix</th><th>Plots</th></tr>
{{range .}}
<tr>
  <td>{{.At.Format "15:04:05"}}</td>
  <td>{{.Epoch}}</td>
  <td>{{.FixText}}</td>
  <td>
    <a href="{{.Name}}-constellation.png">constellation</a>
    <a href="{{.Name}}-discriminators.png">discriminators</a>
    {{if .HasAcq}}<a href="{{.Name}}-acquisition.png">acquisition</a>{{end}}
  </td>
</tr>
{{end}}
</table>
</body></html>
`))

func (p *Publisher) writeIndex(history []publishedSnapshot) {
	// Reverse so the newest snapshot is first.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	f, err := os.Create(filepath.Join(p.outDir, "index.html"))
	if err != nil {
		logging.Warnf("diagnostics: create index.html: %v", err)
		return
	}
	defer f.Close()

	if err := indexTemplate.Execute(f, history); err != nil {
		logging.Warnf("diagnostics: render index.html: %v", err)
	}
}
