package podtemplate

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"

	"github.com/Al-assad/potamoi-experiment/internal/clusterdef"
	"github.com/Al-assad/potamoi-experiment/internal/pathutil"
)

// buildLoaderContainer builds the userlib-loader init-container: it runs
// the MinIO client image, first aliasing "minio" to the configured S3
// endpoint, then copying each library out to /opt/flink/lib. One shell
// command string joined with &&, no templating layer.
func buildLoaderContainer(libs []string, pota clusterdef.PotaConf) corev1.Container {
	var cmds []string
	cmds = append(cmds, aliasCommand(pota.S3))
	for _, lib := range libs {
		cmds = append(cmds, copyCommand(lib, pota.S3))
	}

	return corev1.Container{
		Name:    loaderName,
		Image:   loaderImage,
		Command: []string{"/bin/sh", "-c", strings.Join(cmds, " && ")},
		VolumeMounts: []corev1.VolumeMount{
			{Name: volLibs, MountPath: "/opt/flink/lib"},
		},
	}
}

func aliasCommand(s3 clusterdef.S3PotaConf) string {
	return fmt.Sprintf(
		"mc alias set minio %s %s %s",
		s3.Endpoint, s3.AccessKey, s3.SecretKey,
	)
}

// copyCommand builds the "mc cp minio/<pure-path> /opt/flink/lib/<basename>"
// step for one library. The path is first passed through
// S3PotaConf.RevisePath, which normalizes bucket placement for
// path-style vs virtual-hosted addressing.
func copyCommand(libPurePath string, s3 clusterdef.S3PotaConf) string {
	revised := s3.RevisePath(libPurePath)
	base := pathutil.Basename(libPurePath)
	return fmt.Sprintf("mc cp minio/%s /opt/flink/lib/%s", revised, base)
}
