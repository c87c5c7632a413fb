//go:build onnx
// +build onnx

package embedder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
	"github.com/arvind3/qa-intelligence-platform/src/go/vecmath"
)

// Model parameters for all-MiniLM-L6-v2, the same sentence transformer the
// browser build of this tool runs through transformers.js.
const (
	onnxModelName    = "all-MiniLM-L6-v2"
	onnxDimensions   = 384
	onnxMaxSeqLength = 256

	padTokenID = 0
	unkTokenID = 100
	clsTokenID = 101
	sepTokenID = 102
)

// ONNXEmbedder runs a local sentence-transformer model through ONNX Runtime
// with mean pooling and L2 normalization over the token embeddings.
type ONNXEmbedder struct {
	mu        sync.Mutex
	session   *onnxruntime.Session
	tokenizer *wordTokenizer
	modelPath string
}

// NewONNXEmbedder opens the model at cfg.ModelPath. A missing model file or
// a failed runtime initialization is reported as ErrBackendUnavailable so
// the caller can fall through to the hash backend.
func NewONNXEmbedder(cfg Config) (Embedder, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("no model path configured: %w", types.ErrBackendUnavailable)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file %s: %v: %w", cfg.ModelPath, err, types.ErrBackendUnavailable)
	}

	if err := onnxruntime.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("onnxruntime init: %v: %w", err, types.ErrBackendUnavailable)
	}

	session, err := onnxruntime.NewSession(cfg.ModelPath, onnxruntime.NewSessionOptions())
	if err != nil {
		return nil, fmt.Errorf("onnx session: %v: %w", err, types.ErrBackendUnavailable)
	}

	tokenizer, err := loadWordTokenizer(vocabPathFor(cfg.ModelPath))
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("tokenizer: %v: %w", err, types.ErrBackendUnavailable)
	}

	return &ONNXEmbedder{
		session:   session,
		tokenizer: tokenizer,
		modelPath: cfg.ModelPath,
	}, nil
}

// Embed implements Embedder.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	inputIDs, attentionMask := e.tokenizer.Encode(text, onnxMaxSeqLength)

	inputTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, int64(len(inputIDs))), inputIDs)
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer inputTensor.Destroy()

	maskTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, int64(len(attentionMask))), attentionMask)
	if err != nil {
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	outputs, err := e.session.Run([]onnxruntime.Value{inputTensor, maskTensor})
	if err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			out.Destroy()
		}
	}()
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx model produced no outputs")
	}

	data, ok := outputs[0].GetData().([]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0].GetData())
	}
	return meanPool(data, attentionMask), nil
}

// EmbedBatch implements Embedder.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions implements Embedder.
func (e *ONNXEmbedder) Dimensions() int { return onnxDimensions }

// Name implements Embedder.
func (e *ONNXEmbedder) Name() string { return onnxModelName + " (onnx)" }

// Close implements Embedder.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	return nil
}

// meanPool averages the token embeddings of non-padding positions and
// L2-normalizes the result.
func meanPool(tokenEmbeddings []float32, attentionMask []int64) []float32 {
	seqLen := len(attentionMask)
	dim := len(tokenEmbeddings) / seqLen

	pooled := make([]float32, dim)
	valid := 0
	for i := 0; i < seqLen; i++ {
		if attentionMask[i] != 1 {
			continue
		}
		for j := 0; j < dim; j++ {
			pooled[j] += tokenEmbeddings[i*dim+j]
		}
		valid++
	}
	if valid > 0 {
		for j := range pooled {
			pooled[j] /= float32(valid)
		}
	}
	return vecmath.Normalize(pooled)
}

// wordTokenizer is a whole-word BERT-vocab tokenizer. It skips wordpiece
// splitting: out-of-vocabulary words map to [UNK], which is accurate enough
// for ranking test-case text while keeping the binding dependency-free.
type wordTokenizer struct {
	vocab map[string]int64
	words *regexp.Regexp
}

func vocabPathFor(modelPath string) string {
	if i := strings.LastIndex(modelPath, "."); i > 0 {
		return modelPath[:i] + ".vocab.txt"
	}
	return modelPath + ".vocab.txt"
}

func loadWordTokenizer(vocabPath string) (*wordTokenizer, error) {
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("open vocab %s: %w", vocabPath, err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		vocab[strings.TrimSpace(scanner.Text())] = id
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}

	return &wordTokenizer{
		vocab: vocab,
		words: regexp.MustCompile(`[a-zA-Z]+|[0-9]+|\S`),
	}, nil
}

// Encode produces fixed-length input_ids and attention_mask tensors with
// [CLS] ... [SEP] framing and [PAD] fill.
func (t *wordTokenizer) Encode(text string, maxLen int) ([]int64, []int64) {
	words := t.words.FindAllString(strings.ToLower(text), maxLen-2)

	ids := make([]int64, 0, maxLen)
	ids = append(ids, clsTokenID)
	for _, w := range words {
		if id, ok := t.vocab[w]; ok {
			ids = append(ids, id)
		} else {
			ids = append(ids, unkTokenID)
		}
	}
	ids = append(ids, sepTokenID)

	mask := make([]int64, maxLen)
	for i := range ids {
		mask[i] = 1
	}
	for len(ids) < maxLen {
		ids = append(ids, padTokenID)
	}
	return ids, mask
}
