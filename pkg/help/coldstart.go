package help

const ColdstartYAML = `# smart-browse Quick Start

routing:
  local: "Pages shorter than local_llm_threshold characters try the local model first"
  backend: "Everything else, comparisons, and any local failure go to the backend"

commands:
  configure: |
    smart-browse settings set --backend-url http://localhost:8000 --local-llm-url http://localhost:1234
    smart-browse settings set --use-local-llm=false
    smart-browse health

  extract: |
    smart-browse extract --url "https://example.com/product/123"
    smart-browse extract --file page.html --url "https://example.com/article" --format yaml

  batch_extract: |
    smart-browse fetch --urls "url1,url2,url3" --workers 4

  summarize: |
    smart-browse summarize --url "https://example.com/article"

  compare: |
    smart-browse compare --url "https://shop.example.com/product/123"

  chat: |
    smart-browse chat --url "https://example.com/article" --question "What is the main claim?"
    smart-browse chat --url "https://example.com/article" --stream "Summarize the conclusion"

  sessions: |
    smart-browse sessions list
    smart-browse sessions show            # current session
    smart-browse sessions delete <id>
    smart-browse sessions export --file backup.yaml

  daemon: |
    smart-browse serve --addr 127.0.0.1:8765
    curl -s localhost:8765/message -d '{"type":"GET_SETTINGS"}'

storage:
  - "Settings and chat sessions live in smart-browse.db next to the binary"
  - "--store /path/to.db or --store redis://host:6379/0 selects another store"
  - "Fetched HTML is cached in smart-browse-cache/ for --max-age (default 1h)"

exit_codes:
  0: "success"
  1: "usage error"
  2: "runtime failure"
`
