package classifier

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ErrModelUnavailable is returned by Infer when the model failed to load at
// startup. The process keeps serving so the health endpoint can report it.
var ErrModelUnavailable = errors.New("model unavailable")

// Classifier wraps a loaded ONNX session over a fixed label set. The input
// and output tensors are allocated once; Run calls are serialized so
// concurrent requests queue for the device instead of sharing buffers.
type Classifier struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]

	labels   []string
	inputLen int
	loadErr  error
}

// New loads the model at modelPath and prepares a session expecting a
// planar [1,3,imageSize,imageSize] float32 input and a softmax output with
// one probability per label.
func New(modelPath string, labels []string, imageSize int) (*Classifier, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputShape := ort.NewShape(1, 3, int64(imageSize), int64(imageSize))
	outputShape := ort.NewShape(1, int64(len(labels)))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Classifier{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		labels:       labels,
		inputLen:     3 * imageSize * imageSize,
	}, nil
}

// NewUnavailable returns a degraded handle that rejects every inference with
// ErrModelUnavailable wrapping the load failure.
func NewUnavailable(labels []string, cause error) *Classifier {
	return &Classifier{labels: labels, loadErr: cause}
}

// Ready reports whether the model loaded and inference can be served.
func (c *Classifier) Ready() bool {
	return c.session != nil
}

// Labels returns the ordered label set the output vector is indexed by.
func (c *Classifier) Labels() []string {
	return c.labels
}

// Infer runs the model on a preprocessed tensor and returns the raw
// probability vector. The model applies softmax internally, so components
// sum to 1.
func (c *Classifier) Infer(input []float32) ([]float64, error) {
	if c.session == nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, c.loadErr)
	}
	if len(input) != c.inputLen {
		return nil, fmt.Errorf("expected %d input values, got %d", c.inputLen, len(input))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	copy(c.inputTensor.GetData(), input)
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	output := c.outputTensor.GetData()
	probs := make([]float64, len(c.labels))
	for i := range probs {
		probs[i] = float64(output[i])
	}
	return probs, nil
}

func (c *Classifier) Close() {
	if c.inputTensor != nil {
		c.inputTensor.Destroy()
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
	}
	if c.session != nil {
		c.session.Destroy()
		ort.DestroyEnvironment()
	}
}
