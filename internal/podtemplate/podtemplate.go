// Package podtemplate builds the Kubernetes Pod spec Flink uses to shape
// jobmanager/taskmanager pods, provisioning side-car volumes and an
// optional init-container that stages user libraries from object
// storage. Plain corev1 struct literals assembled by small helper
// functions, no builder abstraction.
package podtemplate

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/Al-assad/potamoi-experiment/internal/clusterdef"
	"github.com/Al-assad/potamoi-experiment/internal/operrors"
	"github.com/Al-assad/potamoi-experiment/internal/pathutil"
)

const (
	podTemplateName = "pod-template"

	volHostpath = "flink-volume-hostpath"
	volLibs     = "flink-libs"
	volLogs     = "flink-logs"

	mainContainerName = "flink-main-container"
	loaderImage       = "minio/mc:latest"
	loaderName        = "userlib-loader"
)

// Resolve returns the pod template for def: if def.OverridePodTemplate
// is set, parse it as YAML into a Pod (DecodePodTemplateYamlErr on
// failure); otherwise synthesize one from the definition.
func Resolve(def clusterdef.FlinkClusterDef, pota clusterdef.PotaConf) (*corev1.Pod, error) {
	if def.OverridePodTemplate != nil && *def.OverridePodTemplate != "" {
		pod, err := DecodeYaml([]byte(*def.OverridePodTemplate))
		if err != nil {
			return nil, &operrors.DecodePodTemplateYamlErr{Path: "<inline override>", Cause: err}
		}
		return pod, nil
	}
	pod, err := synthesize(def, pota)
	if err != nil {
		return nil, &operrors.GenPodTemplateErr{Fcid: def.Fcid, Cause: err}
	}
	return pod, nil
}

// s3Libs returns the subset of def.InjectedDeps on S3 (already revised to
// s3p:// scheme by the resolver), each reduced to its pure path.
func s3Libs(def clusterdef.FlinkClusterDef) []string {
	var out []string
	for _, dep := range def.InjectedDeps {
		if pathutil.IsS3Path(dep) {
			out = append(out, pathutil.PurePath(dep))
		}
	}
	return out
}

func synthesize(def clusterdef.FlinkClusterDef, pota clusterdef.PotaConf) (*corev1.Pod, error) {
	libs := s3Libs(def)

	volumes := []corev1.Volume{
		{
			Name: volHostpath,
			VolumeSource: corev1.VolumeSource{
				HostPath: &corev1.HostPathVolumeSource{
					Path: "/tmp",
					Type: hostPathDirType(),
				},
			},
		},
		{Name: volLibs, VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}},
		{Name: volLogs, VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}},
	}

	var initContainers []corev1.Container
	if len(libs) > 0 {
		initContainers = []corev1.Container{buildLoaderContainer(libs, pota)}
	}

	mainContainer := corev1.Container{
		Name: mainContainerName,
		VolumeMounts: append(
			[]corev1.VolumeMount{
				{Name: volHostpath, MountPath: "/opt/flink/volume"},
				{Name: volLogs, MountPath: "/opt/flink/log"},
			},
			libMounts(libs)...,
		),
	}

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: podTemplateName},
		Spec: corev1.PodSpec{
			Volumes:        volumes,
			InitContainers: initContainers,
			Containers:     []corev1.Container{mainContainer},
		},
	}
	return pod, nil
}

func hostPathDirType() *corev1.HostPathType {
	t := corev1.HostPathDirectory
	return &t
}

// libMounts builds the main container's per-library mounts: one extra
// mount of the shared flink-libs volume per S3 library, at
// /opt/flink/lib/<basename> with subPath=<basename>.
func libMounts(libs []string) []corev1.VolumeMount {
	out := make([]corev1.VolumeMount, 0, len(libs))
	for _, lib := range libs {
		base := pathutil.Basename(lib)
		out = append(out, corev1.VolumeMount{
			Name:      volLibs,
			MountPath: "/opt/flink/lib/" + base,
			SubPath:   base,
		})
	}
	return out
}
