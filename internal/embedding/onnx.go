package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/JaimeStill/moodmap/pkg/vector"
)

// ONNX Runtime is initialized once per process.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// onnxProvider runs a BERT-style sentence encoder locally: tokenize, run
// the model, mean-pool the last hidden state over the attention mask, and
// L2-normalize.
type onnxProvider struct {
	session    *ort.DynamicAdvancedSession
	tokMu      sync.Mutex
	tok        *tokenizer.Tokenizer
	inputNames []string
	dim        int64
	maxSeqLen  int
	logger     *slog.Logger
}

func newONNX(cfg *ONNXConfig, logger *slog.Logger) (*onnxProvider, error) {
	libPath := cfg.LibraryPath
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(cfg.ModelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: initialize runtime: %w", err)
	}

	tok, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: load tokenizer: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model info: %w", err)
	}
	inputNames, err := modelInputs(inputs)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 || len(outputs[0].Dimensions) != 3 {
		return nil, fmt.Errorf("onnx: expected a [batch, seq, dim] output")
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: session options: %w", err)
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}

	p := &onnxProvider{
		session:    session,
		tok:        tok,
		inputNames: inputNames,
		dim:        outputs[0].Dimensions[2],
		maxSeqLen:  cfg.MaxSeqLen,
		logger:     logger.With("system", "embedding", "provider", ProviderONNX),
	}
	p.logger.Info("onnx model loaded", "model", cfg.ModelPath, "dimensions", p.dim)
	return p, nil
}

// modelInputs orders the inputs the session feeds. token_type_ids is
// optional; some exports drop it.
func modelInputs(inputs []ort.InputOutputInfo) ([]string, error) {
	present := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		present[in.Name] = true
	}
	for _, name := range []string{"input_ids", "attention_mask"} {
		if !present[name] {
			return nil, fmt.Errorf("onnx: model missing required input %q", name)
		}
	}
	names := []string{"input_ids", "attention_mask"}
	if present["token_type_ids"] {
		names = append(names, "token_type_ids")
	}
	return names, nil
}

func (p *onnxProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.tokMu.Lock()
	enc, err := p.tok.EncodeSingle(NormalizeText(text), true)
	p.tokMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("onnx: tokenize: %w", err)
	}

	ids, mask, types := truncate(enc.Ids, enc.AttentionMask, enc.TypeIds, p.maxSeqLen)
	seqLen := int64(len(ids))
	shape := ort.NewShape(1, seqLen)

	tensors := make([]ort.Value, 0, 3)
	defer func() {
		for _, t := range tensors {
			t.Destroy()
		}
	}()
	for _, data := range [][]int64{ids, mask, types}[:len(p.inputNames)] {
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("onnx: input tensor: %w", err)
		}
		tensors = append(tensors, t)
	}

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, seqLen, p.dim))
	if err != nil {
		return nil, fmt.Errorf("onnx: output tensor: %w", err)
	}
	defer out.Destroy()

	if err := p.session.Run(tensors, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx: inference: %w", err)
	}

	return vector.Normalize(MeanPool(out.GetData(), mask, int(p.dim))), nil
}

func (p *onnxProvider) Close() error {
	return p.session.Destroy()
}

// truncate converts the encoding to int64 and caps it at maxLen tokens,
// keeping the final special token.
func truncate(ids, mask, types []int, maxLen int) ([]int64, []int64, []int64) {
	n := len(ids)
	keep := func(src []int) []int64 {
		out := make([]int64, 0, min(n, maxLen))
		for i := range min(n, maxLen) {
			j := i
			if n > maxLen && i == maxLen-1 {
				j = n - 1
			}
			if j < len(src) {
				out = append(out, int64(src[j]))
			} else {
				out = append(out, 0)
			}
		}
		return out
	}
	if len(mask) == 0 {
		mask = make([]int, n)
		for i := range mask {
			mask[i] = 1
		}
	}
	return keep(ids), keep(mask), keep(types)
}

// MeanPool averages the hidden states of the unmasked tokens. hidden is a
// flat [seq * dim] slice for a single sequence.
func MeanPool(hidden []float32, mask []int64, dim int) []float32 {
	out := make([]float32, dim)
	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for i, x := range row {
			out[i] += x
		}
		count++
	}
	if count == 0 {
		return out
	}
	for i := range out {
		out[i] /= count
	}
	return out
}
