package messaging

import (
	"time"

	"github.com/sirupsen/logrus"

	"voc-engine/pkg/analysis"
	"voc-engine/pkg/correlation"
	"voc-engine/pkg/metrics"
)

// Pipeline runs the analysis stage for completed joins and hands the
// result to the emitter. It runs on the triggering listener's
// goroutine; the analyzer is pure so no locking is needed here.
type Pipeline struct {
	logger   *logrus.Entry
	analyzer *analysis.Analyzer
	emitter  *Emitter
}

// NewPipeline creates the analysis pipeline.
func NewPipeline(logger *logrus.Logger, analyzer *analysis.Analyzer, emitter *Emitter) *Pipeline {
	return &Pipeline{
		logger:   logger.WithField("component", "pipeline"),
		analyzer: analyzer,
		emitter:  emitter,
	}
}

// Process analyzes a completed join record and emits the insight. A
// panic inside the scoring pipeline is logged and the call is dropped:
// the join record is already removed, so the call is never re-analyzed.
func (p *Pipeline) Process(rec *correlation.JoinRecord) {
	defer func() {
		if r := recover(); r != nil {
			metrics.AnalysisFailed()
			p.logger.WithFields(logrus.Fields{
				"call_id": rec.CallID,
				"recover": r,
			}).Error("Recovered from panic in VoC analysis, insight dropped")
		}
	}()

	start := time.Now()
	insight := p.analyzer.Analyze(rec.Transcription.TranscriptionText, rec.Sentiment)
	metrics.ObserveAnalysis(time.Since(start))

	p.emitter.Emit(rec, insight)
}
