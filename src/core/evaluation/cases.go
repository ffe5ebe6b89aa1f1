package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Case is a question with the reference answer it is scored against.
type Case struct {
	Question  string `json:"question" yaml:"question"`
	Reference string `json:"reference" yaml:"reference"`
}

var defaultCases = []Case{
	{
		Question:  "What is quantum computing and how does it differ from classical computing?",
		Reference: "Quantum computing uses qubits that can exist in multiple states simultaneously, leveraging superposition and entanglement, unlike classical computers that use bits (0 or 1). This allows quantum computers to solve certain problems much faster than classical computers.",
	},
	{
		Question:  "What are qubits, superposition, and entanglement in quantum computing?",
		Reference: "Qubits are quantum bits that can represent both 0 and 1 at the same time (superposition). Entanglement is a property where qubits become linked and the state of one affects the other, enabling powerful quantum computations.",
	},
	{
		Question:  "How could quantum computing impact cryptography and data security?",
		Reference: "Quantum computers can break current encryption methods like RSA by factoring large numbers efficiently, which threatens data security. This drives research into quantum-resistant cryptography.",
	},
	{
		Question:  "What are some real-world applications of quantum computing?",
		Reference: "Quantum computing can be used in cryptography, optimization, drug discovery, materials science, and complex simulations that are difficult for classical computers.",
	},
	{
		Question:  "What are the main challenges and future trends in quantum computing?",
		Reference: "Challenges include scalability, error correction, and stability of qubits. Future trends involve overcoming these barriers, developing quantum-safe cryptography, and expanding applications in various fields.",
	},
}

// DefaultCases returns the built-in quantum computing cases.
func DefaultCases() []Case {
	out := make([]Case, len(defaultCases))
	copy(out, defaultCases)
	return out
}

// LoadCases reads a list of cases from a .json file, or from YAML for any other extension.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases: %w", err)
	}
	return ParseCases(filepath.Ext(path), data)
}

func ParseCases(ext string, data []byte) ([]Case, error) {
	var cases []Case
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &cases); err != nil {
			return nil, fmt.Errorf("failed to parse json cases: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse yaml cases: %w", err)
	}

	for i, c := range cases {
		if strings.TrimSpace(c.Question) == "" {
			return nil, fmt.Errorf("case %d: question is empty", i)
		}
	}
	return cases, nil
}
