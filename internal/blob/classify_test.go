package blob

import (
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestClassifyAzureError_4xxIsPermanent(t *testing.T) {
	err := classifyAzureError(&azcore.ResponseError{StatusCode: 403})
	require.True(t, IsPermanent(err))
}

func TestClassifyAzureError_TooManyRequestsIsTransient(t *testing.T) {
	err := classifyAzureError(&azcore.ResponseError{StatusCode: 429})
	require.True(t, IsTransient(err))
}

func TestClassifyAzureError_5xxIsTransient(t *testing.T) {
	err := classifyAzureError(&azcore.ResponseError{StatusCode: 503})
	require.True(t, IsTransient(err))
}

func TestClassifyAzureError_UnrecognizedIsTransient(t *testing.T) {
	err := classifyAzureError(errors.New("boom"))
	require.True(t, IsTransient(err))
}

func TestClassifyGCSError_4xxIsPermanent(t *testing.T) {
	err := classifyGCSError(&googleapi.Error{Code: 404})
	require.True(t, IsPermanent(err))
}

func TestClassifyGCSError_429IsTransient(t *testing.T) {
	err := classifyGCSError(&googleapi.Error{Code: 429})
	require.True(t, IsTransient(err))
}

func TestClassifyGCSError_5xxIsTransient(t *testing.T) {
	err := classifyGCSError(&googleapi.Error{Code: 500})
	require.True(t, IsTransient(err))
}
