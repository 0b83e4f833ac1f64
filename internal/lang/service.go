package lang

// Service is a stable, embeddable entrypoint wrapping the package-level
// Compile functions, mirroring the teacher's thin Service facade.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) CompileFile(sourcePath string, opts *CompileOptions) (*CompileResult, error) {
	return CompileFile(sourcePath, opts)
}

func (s *Service) CompileSource(source []byte, opts *CompileOptions) (*CompileResult, error) {
	return CompileSource(source, opts)
}

func (s *Service) CompileBundleFile(sourcePath string, opts *CompileOptions) (CompileBundle, *CompileResult, error) {
	res, err := CompileFile(sourcePath, opts)
	return BuildCompileBundle(res), res, err
}

func (s *Service) CompileBundleSource(source []byte, opts *CompileOptions) (CompileBundle, *CompileResult, error) {
	res, err := CompileSource(source, opts)
	return BuildCompileBundle(res), res, err
}
