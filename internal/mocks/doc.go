// Package mocks provides centralized mock implementations for testing.
//
// Each mock has function fields for customizable behavior, sensible
// defaults when a field is nil, and call tracking for verification:
//
//	gen := &mocks.MockGenerator{
//	    GenerateFn: func(ctx context.Context, content string, opts generation.Options) (string, error) {
//	        return "summary of " + content, nil
//	    },
//	}
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Implement the mock struct with function fields for each interface method
//  3. Document any helper methods or special functionality
package mocks
