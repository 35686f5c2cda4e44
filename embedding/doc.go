// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package embedding defines the embedding provider abstraction.
//
// A Provider turns text into fixed-dimension vectors. Implementations
// are selected by name through the variant registry at construction
// time, never probed at runtime. Each provider declares its model,
// output dimension and maximum batch size so the orchestrator can
// validate compatibility with the target vector store before any data
// is written, and split oversized batches before submission.
//
// Implementation packages:
//
//   - embedding/openai: any OpenAI-compatible embeddings API
//     (OpenAI, Ollama, LocalAI, vLLM) via langchaingo
//   - embedding/mock: deterministic vectors for tests
//
// Providers are stateless per call and safe for concurrent use. They
// are always invoked through the resilience layer under the endpoint
// key "embedding:<name>"; a provider never retries internally.
package embedding
