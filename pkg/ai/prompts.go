package ai

// ExtractPrompt instructs the model to emit a delimited record stream of
// entities and relationships found in a network configuration document.
// Sprintf arguments: entity types, tuple delimiter (x7), record delimiter,
// completion marker, entity types, input text.
const ExtractPrompt = `
-Goal-
Given a network configuration file (YAML format) that defines the topology of a data center, identify all entities and relationships.
The input is based on 'networkd/netplan' format containing definitions for Ethernets, Bonds, VLANs, and Routes.

-Steps-
1. Identify all entities. For each identified entity, extract the following information:
- entity_name: Name of the entity, capitalized. Use the 'NODE X: NAME' from comments or interface names if explicit.
- entity_type: One of the following types: [%s]
- entity_description: Comprehensive description. Include role (Spine/Leaf/Server), MTU settings, mode (LACP), or metrics.
Format each entity as ("entity"%s<entity_name>%s<entity_type>%s<entity_description>)

2. From the entities identified in step 1, identify all pairs of (source_entity, target_entity) that are *clearly related* to each other.
For each pair of related entities, extract the following information:
- source_entity: name of the source entity
- target_entity: name of the target entity
- relationship_description: explanation (e.g., physical uplink, LACP member, VLAN tagging, static route via next-hop).
- relationship_strength: numeric score (10 for physical/direct, 8 for aggregation/bonding, 6 for routing/logical).
Format each relationship as ("relationship"%s<source_entity>%s<target_entity>%s<relationship_description>%s<relationship_strength>)

3. Return output in English as a single list of all the entities and relationships identified in steps 1 and 2. Use **%s** as the list delimiter.

4. When finished, output %s

######################
-Real Data-
######################
Entity_types: %s
Text: %s
######################
Output:`

// CommunityReportPrompt asks for one structured report per community in a
// batch. Sprintf argument: the batched member listings, each preceded by a
// "--- COMMUNITY ID: <id> ---" header.
const CommunityReportPrompt = `
You are an expert network analyst. I will provide data for multiple communities (clusters) of network entities.
The data for each community is separated by a header like "--- COMMUNITY ID: <id> ---".

For EACH community, generate a report with the following fields:
- "id": The community ID provided in the header.
- "title": A short, descriptive title for the cluster.
- "summary": A comprehensive summary of the devices and their roles.
- "rating": A risk/importance score (0-100).
- "rating_explanation": Why you gave this score.
- "findings": A list of specific insights, each with a short summary and an explanation.

Only report on community IDs that appear in the input headers.

Input data:
%s
`

// RouterPrompt classifies a question into a retrieval strategy. The model
// must answer with a single JSON object {"destination": "GLOBAL"|"LOCAL"}.
const RouterPrompt = `
---Role---
You are an intelligent query router for a network GraphRAG system.
Your task is to analyze the user's question and decide which retrieval strategy is best suited to answer it: "GLOBAL" or "LOCAL".

---Definitions---
1. GLOBAL (global search):
   - Use this for high-level, holistic questions about the entire system.
   - Keywords: "overview", "summary", "architecture", "topology", "health", "clusters", "communities", "general status", "risks".
   - Examples:
     - "How is the network designed?"
     - "What are the main communities in the network?"
     - "Are there any single points of failure in the architecture?"

2. LOCAL (local search):
   - Use this for specific, detailed questions about distinct entities (devices, IPs, interfaces) or specific paths.
   - Keywords: specific names (Router A, Switch B), specific IPs (10.0.1.1), "connection between", "path", "neighbors", "impact of failure of X".
   - Examples:
     - "What is the IP address of Compute Leaf 1?"
     - "Who is connected to interface eth0 of Spine 1?"
     - "If Router A fails, which servers lose connectivity?"

---Output Format---
Return a single JSON object with the key "destination" and the value "GLOBAL" or "LOCAL". Do not add any explanation.
`

// GlobalMapPrompt scores community report chunks against the question.
// Sprintf arguments: question, context data.
const GlobalMapPrompt = `
---Role---
You are a helpful assistant answering a user's question about a network system based on the provided community reports.

---Goal---
Analyze the provided community reports and identify any key points, findings, or specific details that are relevant to the user's question.
Assign a relevance score (0-100) to each point based on how well it answers the question.
Each point must be a concise statement of the finding, including a data reference to its report (e.g., [Data: Reports (2)]).

---Input Data---
User question: %s

Community reports (context):
%s
`

// GlobalReducePrompt synthesizes the top-ranked map points into one answer.
// Sprintf arguments: question, ranked report data.
const GlobalReducePrompt = `
---Role---
You are an expert network architect and technical writer.
Your task is to synthesize a comprehensive answer based on the provided data points from multiple community analysis reports.

---Goal---
Produce a readable, structured report formatted in Markdown that answers the user's question by synthesizing the provided analyst reports, which are ranked by relevance.

---Formatting Rules---
1. Start with a level 2 header (##) for the main title.
2. Use level 3 headers (###) for distinct sections, with a blank line before and after every header.
3. Use bullet points (*) for listing items; use **bold** for key entities such as device names, IP addresses, and protocols.
4. You MUST preserve the data references (e.g., [Data: Reports (2, 7)]) to support your claims. Do not list more than 5 IDs per reference.

---Content Guidelines---
- If the provided reports do not contain sufficient information to answer the question, state that clearly. Do not make up information.
- Remove irrelevant information and merge duplicate findings.

---Input Data---
User question: %s

Analyst reports (key findings, ranked):
%s
`

// LocalSearchPrompt drives multi-hop reasoning over rendered graph triples.
// Sprintf arguments: context triples, question.
const LocalSearchPrompt = `
---Role---
You are an expert network infrastructure assistant specializing in graph-based topology analysis and troubleshooting.
Your primary function is to answer user queries by performing multi-hop reasoning over the provided network graph data.

---Input Data Format---
The context data is provided as a set of graph triples representing the network topology in the following format:
(Type) Source --[RELATIONSHIP: description]--> (Type) Target

---Reasoning Instructions---
1. Entity identification: identify the key devices, IPs, or interfaces mentioned in the question and locate them in the provided triples.
2. Path traversal (multi-hop): trace the connections from the starting entity to the target entity. If A connects to B, and B connects to C, you must infer the logical relationship between A and C.
3. Contextual synthesis: combine the individual triples into a coherent narrative. Explain how devices are connected.
4. Failure analysis (if applicable): if the question involves redundancy or failure, analyze whether alternative paths exist.

---Constraints---
- Only use information provided in the graph data. Do not hallucinate connections.
- Be direct: start with the answer, then provide the supporting path or evidence.
- If the graph data is insufficient to answer the question, state: "I cannot find sufficient connectivity information in the current graph context to answer this question."

---Graph Data (Context)---
%s

---User Question---
%s

---Response---
`
