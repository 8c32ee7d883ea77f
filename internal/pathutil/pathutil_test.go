package pathutil

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestIsS3Path(t *testing.T) {
	for _, p := range []string{"s3://b/k", "s3a://b/k", "s3n://b/k", "s3p://b/k"} {
		assert.Assert(t, IsS3Path(p), p)
	}
	for _, p := range []string{"hdfs://b/k", "/local/path", "file:///tmp/x", ""} {
		assert.Assert(t, !IsS3Path(p), p)
	}
}

func TestPurePath(t *testing.T) {
	assert.Equal(t, PurePath("s3://bucket/a/b.jar"), "bucket/a/b.jar")
	assert.Equal(t, PurePath("s3p:///bucket/a"), "bucket/a")
	assert.Equal(t, PurePath("/local/path"), "local/path")
}

func TestReviseToS3pSchema(t *testing.T) {
	assert.Equal(t, ReviseToS3pSchema("s3://b/k"), "s3p://b/k")
	assert.Equal(t, ReviseToS3pSchema("s3a://b/k"), "s3p://b/k")
	assert.Equal(t, ReviseToS3pSchema("s3p://b/k"), "s3p://b/k")
	assert.Equal(t, ReviseToS3pSchema("/local/path"), "/local/path")
	assert.Equal(t, ReviseToS3pSchema("hdfs://b/k"), "hdfs://b/k")
}

func TestBasename(t *testing.T) {
	assert.Equal(t, Basename("s3://b/libs/app.jar"), "app.jar")
}

func TestSplitBucketAndKey(t *testing.T) {
	bucket, key := SplitBucketAndKey("mybucket/dir/app.jar")
	assert.Equal(t, bucket, "mybucket")
	assert.Equal(t, key, "dir/app.jar")

	bucket, key = SplitBucketAndKey("onlybucket")
	assert.Equal(t, bucket, "onlybucket")
	assert.Equal(t, key, "")
}

func TestPositiveFloatOrDefault(t *testing.T) {
	assert.Equal(t, PositiveFloatOrDefault(2.0, 1.0), 2.0)
	assert.Equal(t, PositiveFloatOrDefault(0, 1.0), 1.0)
	assert.Equal(t, PositiveFloatOrDefault(-5, 1920), 1920.0)
}

func TestAtLeast(t *testing.T) {
	assert.Equal(t, AtLeast(5, 1), 5)
	assert.Equal(t, AtLeast(0, 1), 1)
	assert.Equal(t, AtLeast(-3, 1), 1)
}
