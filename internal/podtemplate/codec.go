package podtemplate

import (
	"os"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"

	"github.com/Al-assad/potamoi-experiment/internal/operrors"
)

// DecodeYaml parses raw YAML into a corev1.Pod. sigs.k8s.io/yaml decodes
// via the struct's JSON tags, the same tags corev1.Pod already carries.
func DecodeYaml(raw []byte) (*corev1.Pod, error) {
	var pod corev1.Pod
	if err := yaml.Unmarshal(raw, &pod); err != nil {
		return nil, err
	}
	return &pod, nil
}

// EncodeYaml renders pod as YAML, dropping null fields (sigs.k8s.io/yaml
// round-trips through encoding/json, so every corev1 "omitempty" tag
// already suppresses unset fields).
func EncodeYaml(pod *corev1.Pod) ([]byte, error) {
	return yaml.Marshal(pod)
}

// Dump encodes pod as YAML and writes it to path: the existing file (if
// any) is removed first, then the new content is written.
func Dump(pod *corev1.Pod, path string) error {
	raw, err := EncodeYaml(pod)
	if err != nil {
		return &operrors.EncodePodTemplateYamlErr{Cause: err}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &operrors.IOErr{Msg: "remove existing pod template " + path, Cause: err}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return &operrors.IOErr{Msg: "write pod template " + path, Cause: err}
	}
	return nil
}
